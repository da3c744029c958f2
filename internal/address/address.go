package address

import (
	"context"
	"time"
)

// Validator classifies a free-form address string.
// Implementations never fail on malformed input; an error means an
// internal fault and no partial result is returned alongside it.
type Validator interface {
	ValidateAddress(ctx context.Context, raw string, opts Options) (ValidationResult, error)
}

// Options tune a single validation.
type Options struct {
	// Debug records every reconciliation step in ValidationResult.Trace
	// and logs it at debug level.
	Debug bool
}

// StateReference supplies the list of states with their codes and known cities.
// Implementations must be idempotent so callers can cache the answer.
type StateReference interface {
	FetchStates(ctx context.Context) ([]StateRecord, error)
}

// Locator resolves a ZIP code to its authoritative city and state.
// A ZIP that is unknown to the source returns (nil, nil).
type Locator interface {
	LocationByZip(ctx context.Context, zip string) (*AuthoritativeLocation, error)
}

// ZipLister lists the ZIP codes the source knows for a city in a state.
type ZipLister interface {
	ZipsByCityState(ctx context.Context, city, state string) ([]string, error)
}

// Recorder observes lookups and outcomes for metrics.
type Recorder interface {
	ObserveLookup(source, outcome string, elapsed time.Duration)
	ObserveResult(status Status, corrections map[string]string)
}

// Status is the classification of a validated address.
type Status string

const (
	StatusValid        Status = "valid"
	StatusCorrected    Status = "corrected"
	StatusUnverifiable Status = "unverifiable"
)

// Correction keys used in ValidationResult.Corrections.
const (
	FieldCity  = "city"
	FieldState = "state"
	FieldZip   = "zip"
)

// Notes emitted by the matcher.
const (
	NoteStreetSuffixCorrected = "street_suffix_corrected"
	NoteStateNotRecognized    = "state_not_recognized"
)

// ParsedAddress holds the components extracted from the raw input.
// Absent components are nil and serialize as JSON null.
type ParsedAddress struct {
	Street *string `json:"street"`
	Number *string `json:"number"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Zip    *string `json:"zip"`
}

// StateRecord is one row of the state reference table.
type StateRecord struct {
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	FIPS   string   `json:"fips"`
	Cities []string `json:"cities,omitempty"`
}

// AuthoritativeLocation is a lookup source's answer for a ZIP code.
type AuthoritativeLocation struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Final is the reconciled address. City and State are always known.
type Final struct {
	Number       *string `json:"number"`
	Street       *string `json:"street"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          *string `json:"zip"`
	Standardized string  `json:"standardized"`
}

// ValidationResult is the outcome of validating one address.
type ValidationResult struct {
	Input       string            `json:"input"`
	Status      Status            `json:"status"`
	Parsed      ParsedAddress     `json:"parsed"`
	Corrections map[string]string `json:"corrections"`
	Final       *Final            `json:"final,omitempty"`
	Notes       []string          `json:"notes,omitempty"`
	Trace       []TraceStep       `json:"trace,omitempty"`
}

// TraceStep records one reconciliation decision when debugging.
type TraceStep struct {
	Step string `json:"step"`
	Data any    `json:"data,omitempty"`
}

func ptr(s string) *string {
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

// Clone returns a deep copy so later stages never share storage with earlier ones.
func (p ParsedAddress) Clone() ParsedAddress {
	return ParsedAddress{
		Street: clonePtr(p.Street),
		Number: clonePtr(p.Number),
		City:   clonePtr(p.City),
		State:  clonePtr(p.State),
		Zip:    clonePtr(p.Zip),
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, string, time.Duration) {}
func (nopRecorder) ObserveResult(Status, map[string]string) {}

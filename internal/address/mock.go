package address

import (
	"context"
	"sync"
)

// MockValidator is a test implementation of Validator.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, raw string, opts Options) (ValidationResult, error)
}

// ValidateAddress delegates to ValidateFunc, or reports every address as
// unverifiable when none is set.
func (m *MockValidator) ValidateAddress(ctx context.Context, raw string, opts Options) (ValidationResult, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, raw, opts)
	}
	return ValidationResult{
		Input:       raw,
		Status:      StatusUnverifiable,
		Parsed:      Parse(raw),
		Corrections: map[string]string{},
	}, nil
}

// MockLocator is a test implementation of Locator. Locations is consulted
// when LocationFunc is nil.
type MockLocator struct {
	LocationFunc func(ctx context.Context, zip string) (*AuthoritativeLocation, error)
	Locations    map[string]AuthoritativeLocation
	Calls        []string

	mu sync.Mutex
}

func (m *MockLocator) LocationByZip(ctx context.Context, zip string) (*AuthoritativeLocation, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, zip)
	m.mu.Unlock()
	if m.LocationFunc != nil {
		return m.LocationFunc(ctx, zip)
	}
	if loc, ok := m.Locations[zip]; ok {
		return &loc, nil
	}
	return nil, nil
}

// MockZipLister is a test implementation of ZipLister. Zips is keyed by
// "city|STATE" and consulted when ZipsFunc is nil.
type MockZipLister struct {
	ZipsFunc func(ctx context.Context, city, state string) ([]string, error)
	Zips     map[string][]string
	Calls    []string

	mu sync.Mutex
}

func (m *MockZipLister) ZipsByCityState(ctx context.Context, city, state string) ([]string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, city+"|"+state)
	m.mu.Unlock()
	if m.ZipsFunc != nil {
		return m.ZipsFunc(ctx, city, state)
	}
	return m.Zips[city+"|"+state], nil
}

// MockStateReference is a test implementation of StateReference.
type MockStateReference struct {
	FetchFunc func(ctx context.Context) ([]StateRecord, error)
	States    []StateRecord
	Calls     int

	mu sync.Mutex
}

func (m *MockStateReference) FetchStates(ctx context.Context) ([]StateRecord, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return m.States, nil
}

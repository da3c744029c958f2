package address

import (
	"context"
	"fmt"

	"github.com/dukerupert/addressd/internal/domain"
)

// Engine runs the full pipeline: parse, refine, reconcile, standardize.
type Engine struct {
	matcher    *Matcher
	reconciler *Reconciler
	recorder   Recorder
}

// EngineConfig holds the collaborators an Engine is built from.
// Matcher and Recorder are optional.
type EngineConfig struct {
	States   StateReference
	Locator  Locator
	Zips     ZipLister
	Matcher  *Matcher
	Recorder Recorder
}

// NewEngine builds an Engine from its collaborators.
func NewEngine(cfg EngineConfig) *Engine {
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = NewMatcher()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		matcher:    matcher,
		reconciler: NewReconciler(cfg.States, cfg.Locator, cfg.Zips, matcher, recorder),
		recorder:   recorder,
	}
}

// ValidateAddress classifies raw. Malformed or empty input is reported as
// unverifiable, never as an error.
func (e *Engine) ValidateAddress(ctx context.Context, raw string, opts Options) (result ValidationResult, err error) {
	const op = "address.ValidateAddress"

	defer func() {
		if r := recover(); r != nil {
			result = ValidationResult{}
			err = domain.Errorf(domain.EINTERNAL, op, "unexpected fault: %v", r)
		}
	}()

	tr := newTracer(ctx, opts.Debug)

	parsed := Parse(raw)
	tr.add("parsed", parsed.Clone())

	refined, notes := e.matcher.Refine(parsed)
	tr.add("refined", map[string]any{"parsed": refined.Clone(), "notes": notes})

	result = e.reconciler.Reconcile(ctx, refined, tr)
	result.Input = raw
	result.Notes = notes
	result.Trace = tr.result()

	if err := result.Check(); err != nil {
		return ValidationResult{}, domain.WrapError(err, domain.EINTERNAL, op, "inconsistent validation result")
	}

	e.recorder.ObserveResult(result.Status, result.Corrections)
	return result, nil
}

// Check verifies the relationship between Status, Corrections and Final.
func (v ValidationResult) Check() error {
	if v.Corrections == nil {
		return fmt.Errorf("corrections must not be nil")
	}

	switch v.Status {
	case StatusValid:
		if len(v.Corrections) != 0 {
			return fmt.Errorf("valid result has corrections %v", v.Corrections)
		}
		if v.Final == nil {
			return fmt.Errorf("valid result has no final address")
		}
		f, p := v.Final, v.Parsed
		if deref(f.Number) != deref(p.Number) || deref(f.Street) != deref(p.Street) ||
			f.City != deref(p.City) || deref(f.Zip) != deref(p.Zip) {
			return fmt.Errorf("valid result final differs from parsed")
		}

	case StatusCorrected:
		if len(v.Corrections) == 0 {
			return fmt.Errorf("corrected result has no corrections")
		}
		if v.Final == nil {
			return fmt.Errorf("corrected result has no final address")
		}
		f, p := v.Final, v.Parsed
		for field, value := range v.Corrections {
			var got string
			switch field {
			case FieldCity:
				got = f.City
			case FieldState:
				got = f.State
			case FieldZip:
				got = deref(f.Zip)
			default:
				return fmt.Errorf("unknown correction field %q", field)
			}
			if got != value {
				return fmt.Errorf("correction %s=%q not reflected in final %q", field, value, got)
			}
		}
		if f.City == deref(p.City) && f.State == deref(p.State) && deref(f.Zip) == deref(p.Zip) {
			return fmt.Errorf("corrected result final equals parsed")
		}

	case StatusUnverifiable:
		if v.Final != nil {
			return fmt.Errorf("unverifiable result has a final address")
		}
		if len(v.Corrections) != 0 {
			return fmt.Errorf("unverifiable result has corrections %v", v.Corrections)
		}

	default:
		return fmt.Errorf("unknown status %q", v.Status)
	}

	return nil
}

package address

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Lookup sources and outcomes reported to the Recorder.
const (
	SourceReference   = "reference"
	SourceZipLocation = "zip_location"
	SourceCityZips    = "city_zips"

	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Reconciler compares parsed components against authoritative sources and
// decides the classification. At most two provider calls are made per
// address, always in the same order.
type Reconciler struct {
	states   StateReference
	locator  Locator
	zips     ZipLister
	matcher  *Matcher
	recorder Recorder
}

// NewReconciler wires the reconciler to its lookup sources.
func NewReconciler(states StateReference, locator Locator, zips ZipLister, matcher *Matcher, recorder Recorder) *Reconciler {
	if matcher == nil {
		matcher = NewMatcher()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Reconciler{
		states:   states,
		locator:  locator,
		zips:     zips,
		matcher:  matcher,
		recorder: recorder,
	}
}

// Reconcile classifies p. The returned result carries Parsed, Status,
// Corrections and Final; the caller fills in the input and notes.
func (r *Reconciler) Reconcile(ctx context.Context, p ParsedAddress, tr *tracer) ValidationResult {
	res := ValidationResult{
		Status:      StatusUnverifiable,
		Parsed:      p.Clone(),
		Corrections: map[string]string{},
	}

	if p.Zip != nil {
		r.byZip(ctx, p, &res, tr)
	} else {
		r.byCityState(ctx, p, &res, tr)
	}

	tr.add("classified", map[string]any{"status": res.Status, "corrections": res.Corrections})
	return res
}

func (r *Reconciler) byZip(ctx context.Context, p ParsedAddress, res *ValidationResult, tr *tracer) {
	loc := r.locationByZip(ctx, *p.Zip)
	tr.add("zip_lookup", map[string]any{"zip": *p.Zip, "location": loc})
	if loc == nil {
		return
	}

	authCity := loc.City
	authState := strings.ToUpper(strings.TrimSpace(loc.State))

	var parsedState string
	if p.State != nil {
		parsedState = r.normalizeState(*p.State, nil)
	}
	cityOK := p.City != nil && sameName(*p.City, authCity)
	stateOK := p.State != nil && strings.EqualFold(parsedState, authState)
	tr.add("zip_compare", map[string]any{"city_match": cityOK, "state_match": stateOK})

	if cityOK && stateOK {
		res.Status = StatusValid
		res.Final = newFinal(p, *p.City, parsedState, p.Zip)
		return
	}

	if !cityOK {
		res.Corrections[FieldCity] = authCity
	}
	if !stateOK {
		res.Corrections[FieldState] = authState
	}
	res.Status = StatusCorrected
	res.Final = newFinal(p, authCity, authState, p.Zip)
}

func (r *Reconciler) byCityState(ctx context.Context, p ParsedAddress, res *ValidationResult, tr *tracer) {
	if p.City == nil || p.State == nil {
		tr.add("missing_city_or_state", nil)
		return
	}

	table := r.stateTable(ctx)
	code := r.normalizeState(*p.State, table)
	tr.add("state_normalized", map[string]any{"input": *p.State, "code": code})

	if cityKnown(table, code, *p.City) {
		tr.add("city_in_reference", map[string]any{"city": *p.City, "state": code})
		res.Status = StatusValid
		res.Final = newFinal(p, *p.City, code, nil)
		return
	}

	zips := r.zipsByCityState(ctx, *p.City, code)
	tr.add("city_zip_lookup", map[string]any{"city": *p.City, "state": code, "zips": zips})
	if len(zips) != 1 {
		return
	}

	res.Status = StatusCorrected
	res.Corrections[FieldZip] = zips[0]
	res.Final = newFinal(p, *p.City, code, ptr(zips[0]))
}

// normalizeState maps a state token to its two-letter code: an exact code or
// full name in the reference table first, then a fuzzy match, then the
// token uppercased.
func (r *Reconciler) normalizeState(token string, table []StateRecord) string {
	key := foldKey(token)
	for _, s := range table {
		if strings.EqualFold(s.Code, key) {
			return strings.ToUpper(s.Code)
		}
	}
	for _, s := range table {
		if foldKey(s.Name) == key {
			return strings.ToUpper(s.Code)
		}
	}
	if code, ok := r.matcher.MatchState(token); ok {
		return code
	}
	return key
}

func cityKnown(table []StateRecord, code, city string) bool {
	for _, s := range table {
		if !strings.EqualFold(s.Code, code) {
			continue
		}
		for _, c := range s.Cities {
			if sameName(c, city) {
				return true
			}
		}
	}
	return false
}

func (r *Reconciler) stateTable(ctx context.Context) []StateRecord {
	if r.states == nil {
		return nil
	}
	start := time.Now()
	states, err := r.states.FetchStates(ctx)
	r.recorder.ObserveLookup(SourceReference, outcomeOf(len(states) > 0, err), time.Since(start))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("state reference unavailable")
		return nil
	}
	return states
}

func (r *Reconciler) locationByZip(ctx context.Context, zip string) *AuthoritativeLocation {
	if r.locator == nil {
		return nil
	}
	start := time.Now()
	loc, err := r.locator.LocationByZip(ctx, zip)
	if err == nil && loc != nil && (strings.TrimSpace(loc.City) == "" || strings.TrimSpace(loc.State) == "") {
		loc = nil
	}
	r.recorder.ObserveLookup(SourceZipLocation, outcomeOf(loc != nil, err), time.Since(start))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("zip", zip).Msg("zip lookup failed")
		return nil
	}
	return loc
}

func (r *Reconciler) zipsByCityState(ctx context.Context, city, state string) []string {
	if r.zips == nil {
		return nil
	}
	start := time.Now()
	zips, err := r.zips.ZipsByCityState(ctx, city, state)
	zips = dedupe(zips)
	r.recorder.ObserveLookup(SourceCityZips, outcomeOf(len(zips) > 0, err), time.Since(start))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("city", city).Str("state", state).Msg("city zip lookup failed")
		return nil
	}
	return zips
}

func newFinal(p ParsedAddress, city, state string, zip *string) *Final {
	f := &Final{
		Number: clonePtr(p.Number),
		Street: clonePtr(p.Street),
		City:   city,
		State:  state,
		Zip:    clonePtr(zip),
	}
	f.Standardized = Standardize(f.Number, f.Street, f.City, f.State, f.Zip)
	return f
}

func outcomeOf(found bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case found:
		return OutcomeHit
	default:
		return OutcomeMiss
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// tracer collects debug steps. A nil tracer records nothing.
type tracer struct {
	logger *zerolog.Logger
	steps  []TraceStep
}

func newTracer(ctx context.Context, enabled bool) *tracer {
	if !enabled {
		return nil
	}
	return &tracer{logger: zerolog.Ctx(ctx)}
}

func (t *tracer) add(step string, data any) {
	if t == nil {
		return
	}
	t.steps = append(t.steps, TraceStep{Step: step, Data: data})
	t.logger.Debug().Str("step", step).Interface("data", data).Msg("address trace")
}

func (t *tracer) result() []TraceStep {
	if t == nil {
		return nil
	}
	return t.steps
}

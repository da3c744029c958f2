package address_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedLookup struct {
	source, outcome string
}

type fakeRecorder struct {
	mu       sync.Mutex
	lookups  []recordedLookup
	statuses []address.Status
}

func (r *fakeRecorder) ObserveLookup(source, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, recordedLookup{source, outcome})
}

func (r *fakeRecorder) ObserveResult(status address.Status, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

type fixture struct {
	locator  *address.MockLocator
	zips     *address.MockZipLister
	states   *address.MockStateReference
	recorder *fakeRecorder
	engine   *address.Engine
}

func newFixture() *fixture {
	f := &fixture{
		locator: &address.MockLocator{Locations: map[string]address.AuthoritativeLocation{
			"94043": {City: "Mountain View", State: "CA"},
			"10118": {City: "New York", State: "NY"},
			"02478": {City: "Waverley", State: "MA"},
			"97477": {City: "Springfield", State: "OR"},
			"97201": {City: "Portland", State: "or"},
		}},
		zips: &address.MockZipLister{Zips: map[string][]string{
			"Smallville|KS": {"66001", "66002"},
			"Lawrence|KS":   {"66044", "66044"},
		}},
		states: &address.MockStateReference{States: []address.StateRecord{
			{Code: "KS", Name: "Kansas", FIPS: "20", Cities: []string{"Topeka", "Wichita"}},
			{Code: "IL", Name: "Illinois", FIPS: "17", Cities: []string{"Springfield", "Chicago"}},
		}},
		recorder: &fakeRecorder{},
	}
	f.engine = address.NewEngine(address.EngineConfig{
		States:   f.states,
		Locator:  f.locator,
		Zips:     f.zips,
		Recorder: f.recorder,
	})
	return f
}

func (f *fixture) validate(t *testing.T, raw string) address.ValidationResult {
	t.Helper()
	res, err := f.engine.ValidateAddress(context.Background(), raw, address.Options{})
	require.NoError(t, err)
	require.NoError(t, res.Check())
	return res
}

func TestEngine_ValidZip(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043")

	assert.Equal(t, address.StatusValid, res.Status)
	assert.Empty(t, res.Corrections)
	require.NotNil(t, res.Final)
	assert.Equal(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043", res.Final.Standardized)
	assert.Equal(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043", res.Input)
	assert.Equal(t, []string{"94043"}, f.locator.Calls)
	assert.Empty(t, f.zips.Calls)
	assert.Zero(t, f.states.Calls)
	assert.Equal(t, []address.Status{address.StatusValid}, f.recorder.statuses)
	assert.Equal(t, []recordedLookup{{address.SourceZipLocation, address.OutcomeHit}}, f.recorder.lookups)
}

func TestEngine_CityCaseDiffersStillValid(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "350 Fifth Ave, new york, NY 10118")

	assert.Equal(t, address.StatusValid, res.Status)
	assert.Empty(t, res.Corrections)
	assert.Equal(t, "new york", res.Final.City)
	assert.Equal(t, "350 Fifth Ave, new york, NY 10118", res.Final.Standardized)
}

func TestEngine_CityCorrectedByZip(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Belmont, MA 02478")

	assert.Equal(t, "Belmont", *res.Parsed.City)
	assert.Equal(t, "MA", *res.Parsed.State)
	assert.Equal(t, "02478", *res.Parsed.Zip)
	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"city": "Waverley"}, res.Corrections)
	assert.Equal(t, "Waverley, MA 02478", res.Final.Standardized)
}

func TestEngine_StreetWithStateZipKeepsStreet(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "123 Main St, CA 94043")

	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"city": "Mountain View"}, res.Corrections)
	require.NotNil(t, res.Final)
	require.NotNil(t, res.Final.Number)
	require.NotNil(t, res.Final.Street)
	assert.Equal(t, "123", *res.Final.Number)
	assert.Equal(t, "Main St", *res.Final.Street)
	assert.Equal(t, "123 Main St, Mountain View, CA 94043", res.Final.Standardized)
}

func TestEngine_CityWithFullStateNameAndZip(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Belmont, Massachusetts 02478")

	assert.Equal(t, "Belmont", *res.Parsed.City)
	assert.Equal(t, "MA", *res.Parsed.State)
	assert.Nil(t, res.Parsed.Street)
	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"city": "Waverley"}, res.Corrections)
	assert.Equal(t, "Waverley, MA 02478", res.Final.Standardized)
}

func TestEngine_UnknownZip(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1234 Fake Street, Springfield, IL 62704")

	assert.Equal(t, address.StatusUnverifiable, res.Status)
	assert.Nil(t, res.Final)
	assert.NotNil(t, res.Corrections)
	assert.Empty(t, res.Corrections)
	assert.Equal(t, []recordedLookup{{address.SourceZipLocation, address.OutcomeMiss}}, f.recorder.lookups)
}

func TestEngine_MisspelledCityCorrected(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Sprngfield, OR 97477")

	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"city": "Springfield"}, res.Corrections)
	assert.Equal(t, "Springfield, OR 97477", res.Final.Standardized)
}

func TestEngine_StateCorrectedByZip(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1 Main St, Portland, ME 97201")

	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"state": "OR"}, res.Corrections)
	assert.Equal(t, "1 Main St, Portland, OR 97201", res.Final.Standardized)
}

func TestEngine_MissingCityWithZipIsCorrected(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1600 Amphitheatre Parkway CA 94043")

	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"city": "Mountain View", "state": "CA"}, res.Corrections)
}

func TestEngine_AmbiguousCityZips(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Smallville, KS")

	assert.Equal(t, address.StatusUnverifiable, res.Status)
	assert.Nil(t, res.Final)
	assert.Empty(t, f.locator.Calls)
	assert.Equal(t, []string{"Smallville|KS"}, f.zips.Calls)
}

func TestEngine_CityInReference(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Topeka, KS")

	assert.Equal(t, address.StatusValid, res.Status)
	assert.Equal(t, "Topeka, KS", res.Final.Standardized)
	assert.Empty(t, f.zips.Calls)
	assert.Equal(t, 1, f.states.Calls)
}

func TestEngine_FullStateNameNormalized(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1 Main St, wichita, Kansas")

	assert.Equal(t, address.StatusValid, res.Status)
	assert.Equal(t, "KS", res.Final.State)
	assert.Equal(t, "1 Main St, wichita, KS", res.Final.Standardized)
}

func TestEngine_SingleZipForCityIsCorrection(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "Lawrence, KS")

	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, map[string]string{"zip": "66044"}, res.Corrections)
	assert.Equal(t, "66044", *res.Final.Zip)
	assert.Equal(t, "Lawrence, KS 66044", res.Final.Standardized)
}

func TestEngine_NoZipNeedsCityAndState(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "123 Main St, Springfield")

	assert.Equal(t, address.StatusUnverifiable, res.Status)
	assert.Empty(t, f.locator.Calls)
	assert.Empty(t, f.zips.Calls)
	assert.Zero(t, f.states.Calls)
}

func TestEngine_MalformedInput(t *testing.T) {
	for _, raw := range []string{"", "   ", ",,,", "no commas here at all"} {
		t.Run(raw, func(t *testing.T) {
			f := newFixture()
			res := f.validate(t, raw)
			assert.Equal(t, address.StatusUnverifiable, res.Status)
			assert.Equal(t, raw, res.Input)
		})
	}
}

func TestEngine_ProviderFailuresFoldIntoUnverifiable(t *testing.T) {
	f := newFixture()
	f.locator.LocationFunc = func(context.Context, string) (*address.AuthoritativeLocation, error) {
		return nil, errors.New("connection reset")
	}
	f.zips.ZipsFunc = func(context.Context, string, string) ([]string, error) {
		return nil, errors.New("503 service unavailable")
	}

	res := f.validate(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043")
	assert.Equal(t, address.StatusUnverifiable, res.Status)

	res = f.validate(t, "Smallville, KS")
	assert.Equal(t, address.StatusUnverifiable, res.Status)

	assert.Equal(t, []recordedLookup{
		{address.SourceZipLocation, address.OutcomeError},
		{address.SourceReference, address.OutcomeHit},
		{address.SourceCityZips, address.OutcomeError},
	}, f.recorder.lookups)
}

func TestEngine_ReferenceFailureFallsBackToZipList(t *testing.T) {
	f := newFixture()
	f.states.FetchFunc = func(context.Context) ([]address.StateRecord, error) {
		return nil, errors.New("reference down")
	}

	res := f.validate(t, "Lawrence, Kansas")

	// "Kansas" is the second segment so it is read as the city.
	assert.Equal(t, address.StatusUnverifiable, res.Status)

	res = f.validate(t, "1 Elm St, Lawrence, KS")
	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, "66044", res.Corrections["zip"])
}

func TestEngine_EmptyLocationIsNoAnswer(t *testing.T) {
	f := newFixture()
	f.locator.LocationFunc = func(context.Context, string) (*address.AuthoritativeLocation, error) {
		return &address.AuthoritativeLocation{City: "", State: "CA"}, nil
	}

	res := f.validate(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043")
	assert.Equal(t, address.StatusUnverifiable, res.Status)
}

func TestEngine_Notes(t *testing.T) {
	f := newFixture()

	res := f.validate(t, "1 Main Stret, Mountain View, CA 94043")
	assert.Equal(t, address.StatusValid, res.Status)
	assert.Equal(t, []string{address.NoteStreetSuffixCorrected}, res.Notes)
	assert.Equal(t, "1 Main STREET, Mountain View, CA 94043", res.Final.Standardized)

	res = f.validate(t, "1 Main St, Mountain View, Atlantis 94043")
	assert.Equal(t, address.StatusCorrected, res.Status)
	assert.Equal(t, []string{address.NoteStateNotRecognized}, res.Notes)
	assert.Equal(t, "CA", res.Corrections["state"])
}

func TestEngine_DebugTrace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.engine.ValidateAddress(ctx, "Belmont, MA 02478", address.Options{Debug: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "parsed", res.Trace[0].Step)
	assert.Equal(t, "classified", res.Trace[len(res.Trace)-1].Step)

	res, err = f.engine.ValidateAddress(ctx, "Belmont, MA 02478", address.Options{})
	require.NoError(t, err)
	assert.Nil(t, res.Trace)
}

func TestEngine_Idempotent(t *testing.T) {
	inputs := []string{
		"1600 Amphitheatre Parkway, Mountain View, CA 94043",
		"350 Fifth Ave, new york, NY 10118",
		"Topeka, KS",
		"1 Main St, wichita, Kansas",
		"1 Main Stret, Mountain View, CA 94043",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			f := newFixture()
			first := f.validate(t, raw)
			require.Equal(t, address.StatusValid, first.Status)

			second := f.validate(t, first.Final.Standardized)
			assert.Equal(t, address.StatusValid, second.Status)
			assert.Equal(t, first.Final.Standardized, second.Final.Standardized)
		})
	}
}

func TestEngine_PanicBecomesInternalError(t *testing.T) {
	f := newFixture()
	f.locator.LocationFunc = func(context.Context, string) (*address.AuthoritativeLocation, error) {
		panic("nil map write")
	}

	res, err := f.engine.ValidateAddress(context.Background(), "Belmont, MA 02478", address.Options{})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Equal(t, address.ValidationResult{}, res)
	assert.Empty(t, f.recorder.statuses)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := address.NewEngine(address.EngineConfig{
		States: &address.MockStateReference{States: address.CanonicalStates()},
		Locator: &lockedLocator{locations: map[string]address.AuthoritativeLocation{
			"94043": {City: "Mountain View", State: "CA"},
		}},
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := engine.ValidateAddress(context.Background(), "1600 Amphitheatre Parkway, Mountain View, CA 94043", address.Options{})
			assert.NoError(t, err)
			assert.Equal(t, address.StatusValid, res.Status)
		}()
	}
	wg.Wait()
}

type lockedLocator struct {
	locations map[string]address.AuthoritativeLocation
}

func (l *lockedLocator) LocationByZip(_ context.Context, zip string) (*address.AuthoritativeLocation, error) {
	if loc, ok := l.locations[zip]; ok {
		return &loc, nil
	}
	return nil, nil
}

func TestValidationResult_Check(t *testing.T) {
	parsed := address.ParsedAddress{City: strPtr("Belmont"), State: strPtr("MA"), Zip: strPtr("02478")}
	final := func(city string) *address.Final {
		return &address.Final{City: city, State: "MA", Zip: strPtr("02478")}
	}

	tests := []struct {
		name    string
		result  address.ValidationResult
		wantErr bool
	}{
		{
			name:   "valid",
			result: address.ValidationResult{Status: address.StatusValid, Parsed: parsed, Corrections: map[string]string{}, Final: final("Belmont")},
		},
		{
			name:    "valid with corrections",
			result:  address.ValidationResult{Status: address.StatusValid, Parsed: parsed, Corrections: map[string]string{"city": "Belmont"}, Final: final("Belmont")},
			wantErr: true,
		},
		{
			name:    "valid final differs",
			result:  address.ValidationResult{Status: address.StatusValid, Parsed: parsed, Corrections: map[string]string{}, Final: final("Waverley")},
			wantErr: true,
		},
		{
			name:   "corrected",
			result: address.ValidationResult{Status: address.StatusCorrected, Parsed: parsed, Corrections: map[string]string{"city": "Waverley"}, Final: final("Waverley")},
		},
		{
			name:    "corrected without corrections",
			result:  address.ValidationResult{Status: address.StatusCorrected, Parsed: parsed, Corrections: map[string]string{}, Final: final("Waverley")},
			wantErr: true,
		},
		{
			name:    "corrected value not in final",
			result:  address.ValidationResult{Status: address.StatusCorrected, Parsed: parsed, Corrections: map[string]string{"city": "Arlington"}, Final: final("Waverley")},
			wantErr: true,
		},
		{
			name:    "corrected but final equals parsed",
			result:  address.ValidationResult{Status: address.StatusCorrected, Parsed: parsed, Corrections: map[string]string{"state": "MA"}, Final: final("Belmont")},
			wantErr: true,
		},
		{
			name:   "unverifiable",
			result: address.ValidationResult{Status: address.StatusUnverifiable, Parsed: parsed, Corrections: map[string]string{}},
		},
		{
			name:    "unverifiable with final",
			result:  address.ValidationResult{Status: address.StatusUnverifiable, Parsed: parsed, Corrections: map[string]string{}, Final: final("Belmont")},
			wantErr: true,
		},
		{
			name:    "nil corrections",
			result:  address.ValidationResult{Status: address.StatusUnverifiable, Parsed: parsed},
			wantErr: true,
		},
		{
			name:    "unknown status",
			result:  address.ValidationResult{Status: "maybe", Corrections: map[string]string{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

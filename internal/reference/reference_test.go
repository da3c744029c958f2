package reference_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/reference"
)

var kansas = []address.StateRecord{{Code: "KS", Name: "Kansas", FIPS: "20", Cities: []string{"Topeka"}}}

func TestBuiltin(t *testing.T) {
	states, err := reference.Builtin().FetchStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 51)
	assert.Equal(t, "AL", states[0].Code)
	assert.Equal(t, "DC", states[50].Code)
}

func TestStatic_ReturnsCopies(t *testing.T) {
	src := reference.NewStatic(kansas)
	ctx := context.Background()

	first, err := src.FetchStates(ctx)
	require.NoError(t, err)
	first[0].Cities[0] = "Mutated"

	second, err := src.FetchStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Topeka", second[0].Cities[0])
	assert.Equal(t, "Topeka", kansas[0].Cities[0])
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	failing := &address.MockStateReference{FetchFunc: func(context.Context) ([]address.StateRecord, error) {
		return nil, errors.New("census down")
	}}
	empty := &address.MockStateReference{}
	good := &address.MockStateReference{States: kansas}

	states, err := reference.NewFallback(
		reference.Named{Name: "census", Source: failing},
		reference.Named{Name: "postgres", Source: empty},
		reference.Named{Name: "static", Source: good},
	).FetchStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, kansas, states)
	assert.Equal(t, 1, failing.Calls)
	assert.Equal(t, 1, empty.Calls)

	_, err = reference.NewFallback(
		reference.Named{Name: "census", Source: failing},
		reference.Named{Name: "postgres", Source: empty},
	).FetchStates(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "census: census down")
	assert.ErrorIs(t, err, reference.ErrEmpty)

	_, err = reference.NewFallback().FetchStates(ctx)
	assert.ErrorIs(t, err, reference.ErrEmpty)
}

func TestCache_LoadsOnce(t *testing.T) {
	src := &address.MockStateReference{States: kansas}
	cache := reference.NewCache(src)
	ctx := context.Background()

	require.NoError(t, cache.Warm(ctx))
	for i := 0; i < 5; i++ {
		states, err := cache.FetchStates(ctx)
		require.NoError(t, err)
		assert.Equal(t, kansas, states)
	}
	assert.Equal(t, 1, src.Calls)
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	fail := true
	src := &address.MockStateReference{FetchFunc: func(context.Context) ([]address.StateRecord, error) {
		if fail {
			return nil, errors.New("temporarily down")
		}
		return kansas, nil
	}}
	cache := reference.NewCache(src)
	ctx := context.Background()

	_, err := cache.FetchStates(ctx)
	require.Error(t, err)

	fail = false
	states, err := cache.FetchStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, kansas, states)

	_, _ = cache.FetchStates(ctx)
	assert.Equal(t, 2, src.Calls)
}

func TestCache_EmptyIsAnError(t *testing.T) {
	cache := reference.NewCache(&address.MockStateReference{})
	_, err := cache.FetchStates(context.Background())
	assert.ErrorIs(t, err, reference.ErrEmpty)
}

func TestCache_ConcurrentFirstLoad(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	src := &address.MockStateReference{FetchFunc: func(context.Context) ([]address.StateRecord, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return kansas, nil
	}}
	cache := reference.NewCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states, err := cache.FetchStates(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, kansas, states)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 1)
}

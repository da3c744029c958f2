// Package reference composes state reference sources: a built-in table,
// a fallback chain and a process-lifetime cache.
package reference

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal/address"
)

// ErrEmpty is returned by a source that answered with no states.
var ErrEmpty = errors.New("state reference is empty")

// Static serves a fixed table.
type Static struct {
	states []address.StateRecord
}

// NewStatic returns a source serving a copy of states.
func NewStatic(states []address.StateRecord) *Static {
	return &Static{states: cloneStates(states)}
}

// Builtin returns the canonical 50 states plus DC, without city lists.
func Builtin() *Static {
	return &Static{states: address.CanonicalStates()}
}

func (s *Static) FetchStates(context.Context) ([]address.StateRecord, error) {
	return cloneStates(s.states), nil
}

// Named labels a source for logging.
type Named struct {
	Name   string
	Source address.StateReference
}

// Fallback asks each source in order and returns the first non-empty answer.
type Fallback struct {
	sources []Named
}

// NewFallback chains sources in priority order.
func NewFallback(sources ...Named) *Fallback {
	return &Fallback{sources: sources}
}

func (f *Fallback) FetchStates(ctx context.Context) ([]address.StateRecord, error) {
	var errs []error
	for _, src := range f.sources {
		states, err := src.Source.FetchStates(ctx)
		if err == nil && len(states) == 0 {
			err = ErrEmpty
		}
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("source", src.Name).Msg("state reference source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		return states, nil
	}
	if len(errs) == 0 {
		return nil, ErrEmpty
	}
	return nil, errors.Join(errs...)
}

// Cache loads the table from its source once and serves it for the life of
// the process. Failed loads are not cached. Concurrent first loads may each
// hit the source; the last one to finish wins, which is harmless because
// sources are idempotent.
type Cache struct {
	source address.StateReference
	states atomic.Pointer[[]address.StateRecord]
}

// NewCache wraps source.
func NewCache(source address.StateReference) *Cache {
	return &Cache{source: source}
}

func (c *Cache) FetchStates(ctx context.Context) ([]address.StateRecord, error) {
	if cached := c.states.Load(); cached != nil {
		return *cached, nil
	}

	states, err := c.source.FetchStates(ctx)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, ErrEmpty
	}

	c.states.Store(&states)
	zerolog.Ctx(ctx).Info().Int("states", len(states)).Msg("state reference loaded")
	return states, nil
}

// Warm loads the table eagerly, for use at startup.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.FetchStates(ctx)
	return err
}

func cloneStates(in []address.StateRecord) []address.StateRecord {
	out := make([]address.StateRecord, len(in))
	for i, s := range in {
		s.Cities = slices.Clone(s.Cities)
		out[i] = s
	}
	return out
}

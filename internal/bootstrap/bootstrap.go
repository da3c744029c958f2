// Package bootstrap assembles the validation engine and its collaborators
// from configuration. Both the HTTP server and the CLI start here.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal"
	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/httpclient"
	"github.com/dukerupert/addressd/internal/postgres"
	"github.com/dukerupert/addressd/internal/provider"
)

// Options carries runtime dependencies that do not come from configuration.
type Options struct {
	// Pool serves the postgres state reference. Required when the
	// reference source is postgres.
	Pool postgres.Querier

	// Recorder observes lookups and results. Optional.
	Recorder address.Recorder

	// HTTPOptions are appended to the provider transport options.
	HTTPOptions []httpclient.Option
}

// Engine is the assembled validator together with the state reference it
// reads, so callers can warm the reference at startup.
type Engine struct {
	*address.Engine
	States address.StateReference
}

// NewEngine builds the validation engine described by cfg.
func NewEngine(cfg *internal.Config, opts Options) (*Engine, error) {
	retry := httpclient.DefaultRetryConfig()
	retry.MaxRetries = cfg.Lookup.MaxRetries

	httpOpts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Lookup.Timeout),
		httpclient.WithRetryConfig(retry),
		httpclient.WithUserAgent("addressd"),
	}
	httpOpts = append(httpOpts, opts.HTTPOptions...)

	factory, err := provider.NewDefaultFactory(provider.NewDefaultValidator(), httpOpts...)
	if err != nil {
		return nil, err
	}

	states, err := factory.CreateStateReference(ReferenceProviderConfig(cfg, opts.Pool))
	if err != nil {
		return nil, fmt.Errorf("state reference: %w", err)
	}

	lookup, err := factory.CreateLookup(LookupProviderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("zip lookup: %w", err)
	}

	scorer, err := address.NewScorer(cfg.Match.Algorithm)
	if err != nil {
		return nil, err
	}
	matcher := address.NewMatcher(
		address.WithScorer(scorer),
		address.WithThreshold(cfg.Match.Threshold),
	)

	engine := address.NewEngine(address.EngineConfig{
		States:   states,
		Locator:  lookup.Locator,
		Zips:     lookup.Zips,
		Matcher:  matcher,
		Recorder: opts.Recorder,
	})

	return &Engine{Engine: engine, States: states}, nil
}

// ReferenceProviderConfig describes the configured state reference source.
func ReferenceProviderConfig(cfg *internal.Config, pool postgres.Querier) *provider.ProviderConfig {
	pc := &provider.ProviderConfig{
		Type:   provider.ProviderTypeReference,
		Name:   provider.ProviderName(cfg.Reference.Source),
		Config: map[string]interface{}{},
	}
	switch pc.Name {
	case provider.ProviderNameCensus:
		pc.Config["url"] = cfg.Reference.CensusURL
	case provider.ProviderNamePostgres:
		if pool != nil {
			pc.Config["pool"] = pool
		}
	}
	return pc
}

// LookupProviderConfig describes the ZIP lookup service.
func LookupProviderConfig(cfg *internal.Config) *provider.ProviderConfig {
	return &provider.ProviderConfig{
		Type: provider.ProviderTypeLookup,
		Name: provider.ProviderNameZippopotam,
		Config: map[string]interface{}{
			"base_url":   cfg.Lookup.ZippopotamURL,
			"cache_size": cfg.Lookup.CacheSize,
		},
	}
}

// Warm loads the state reference eagerly. A failure is logged and left for
// the first request to retry.
func (e *Engine) Warm(ctx context.Context) {
	warmer, ok := e.States.(interface{ Warm(context.Context) error })
	if !ok {
		return
	}
	if err := warmer.Warm(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("state reference not loaded at startup")
	}
}

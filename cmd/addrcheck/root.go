package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dukerupert/addressd/internal"
	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/bootstrap"
	"github.com/dukerupert/addressd/internal/provider"
)

// app holds what the commands need. Tests replace newValidator.
type app struct {
	newValidator func(ctx context.Context, logs io.Writer) (address.Validator, func(), error)
}

func newApp() *app {
	return &app{newValidator: buildValidator}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "addrcheck",
		Short:         "Validate US postal addresses",
		Version:       version,
		SilenceUsage:  true,
	}
	root.AddCommand(newValidateCmd(a), newMCPCmd(a))
	return root
}

// buildValidator assembles the engine from the environment. Logs go to logs
// so that stdout stays clean for results and the MCP protocol.
func buildValidator(ctx context.Context, logs io.Writer) (address.Validator, func(), error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(logs, cfg.Env, cfg.LogLevel)
	ctx = logger.WithContext(ctx)

	cleanup := func() {}
	var opts bootstrap.Options
	if provider.ProviderName(cfg.Reference.Source) == provider.ProviderNamePostgres {
		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		opts.Pool = pool
		cleanup = pool.Close
	}

	engine, err := bootstrap.NewEngine(cfg, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return loggingValidator{Validator: engine, logger: logger}, cleanup, nil
}

// loggingValidator attaches the configured logger to every call.
type loggingValidator struct {
	address.Validator
	logger zerolog.Logger
}

func (v loggingValidator) ValidateAddress(ctx context.Context, raw string, opts address.Options) (address.ValidationResult, error) {
	return v.Validator.ValidateAddress(v.logger.WithContext(ctx), raw, opts)
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dukerupert/addressd/internal"
	"github.com/dukerupert/addressd/internal/bootstrap"
	"github.com/dukerupert/addressd/internal/events"
	"github.com/dukerupert/addressd/internal/handler"
	"github.com/dukerupert/addressd/internal/middleware"
	"github.com/dukerupert/addressd/internal/postgres"
	"github.com/dukerupert/addressd/internal/routes"
	"github.com/dukerupert/addressd/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	ctx = logger.WithContext(ctx)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("addressd", reg)
	business := telemetry.NewBusinessMetrics("addressd", reg)

	healthChecks := map[string]handler.HealthCheck{}

	// Database is only needed for the postgres state reference
	var pool *pgxpool.Pool
	if cfg.DatabaseUrl != "" {
		pool, err = openDatabase(ctx, cfg.DatabaseUrl, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		healthChecks["database"] = pool.Ping
	}

	// Validation engine
	opts := bootstrap.Options{Recorder: business}
	if pool != nil {
		opts.Pool = postgres.Querier(pool)
	}
	engine, err := bootstrap.NewEngine(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}
	engine.Warm(ctx)
	logger.Info().
		Str("reference", cfg.Reference.Source).
		Str("algorithm", cfg.Match.Algorithm).
		Float64("threshold", cfg.Match.Threshold).
		Msg("Validator initialized")

	// Event publishing
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.NatsURL != "" {
		nats, err := events.Connect(cfg.Events.NatsURL, cfg.Events.Subject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = nats
		logger.Info().Str("subject", nats.Subject()).Msg("Publishing validation events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to drain event publisher")
		}
	}()

	// Rate limiting
	var rateLimit echo.MiddlewareFunc
	if cfg.RateLimit.RequestsPerSecond > 0 {
		rlConfig := middleware.DefaultRateLimiterConfig()
		rlConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rlConfig.BurstSize = cfg.RateLimit.Burst
		limiter := middleware.NewRateLimiter(rlConfig)
		defer limiter.Stop()
		rateLimit = limiter.Middleware()
	}

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		echomw.RecoverWithConfig(echomw.RecoverConfig{DisablePrintStack: true}),
		httpMetrics.Middleware(),
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
	)

	routes.RegisterAPIRoutes(e, routes.APIDeps{
		AddressHandler: handler.NewAddressHandler(engine, publisher),
		RateLimit:      rateLimit,
	})
	routes.RegisterOpsRoutes(e, routes.OpsDeps{
		HealthHandler:  handler.NewHealthHandler(healthChecks),
		MetricsHandler: middleware.Handler(reg),
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", addr).Msg("Starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// openDatabase migrates the schema through database/sql and returns a pgx
// pool for the application.
func openDatabase(ctx context.Context, url string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger.Info().Msg("Connecting to database...")
	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

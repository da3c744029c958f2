package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/events"
	"github.com/dukerupert/addressd/internal/provider"
)

type Config struct {
	Env         string
	LogLevel    string
	Port        uint16
	DatabaseUrl string
	Reference   ReferenceConfig
	Lookup      LookupConfig
	Match       MatchConfig
	Events      EventsConfig
	RateLimit   RateLimitConfig
}

// ReferenceConfig selects where the state table comes from.
type ReferenceConfig struct {
	Source    string // "static", "census" or "postgres"
	CensusURL string
}

// LookupConfig configures the ZIP lookup service and its transport.
type LookupConfig struct {
	ZippopotamURL string
	Timeout       time.Duration
	MaxRetries    int
	CacheSize     int // 0 disables the ZIP location cache
}

// MatchConfig tunes fuzzy matching of states and street suffixes.
type MatchConfig struct {
	Threshold float64
	Algorithm string
}

// EventsConfig enables publishing of validation events.
// Publishing is off when NatsURL is empty.
type EventsConfig struct {
	NatsURL string
	Subject string
}

// RateLimitConfig limits validation requests per client.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func NewConfig() (*Config, error) {
	loadDotEnv()
	return LoadConfig(NewViper())
}

// loadDotEnv loads .env from the current directory, then walks up to find it (max 2 levels).
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	log.Warn().Msg(".env file not found, using environment variables and defaults")
}

// NewViper returns a viper instance bound to the environment with every
// default set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REFERENCE_SOURCE", string(provider.ProviderNameCensus))
	v.SetDefault("CENSUS_URL", "")
	v.SetDefault("ZIPPOPOTAM_URL", "")
	v.SetDefault("PROVIDER_TIMEOUT", "5s")
	v.SetDefault("PROVIDER_MAX_RETRIES", 2)
	v.SetDefault("ZIP_CACHE_SIZE", 10000)
	v.SetDefault("MATCH_THRESHOLD", address.DefaultThreshold)
	v.SetDefault("MATCH_ALGORITHM", address.AlgorithmOSA)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT", events.DefaultSubject)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	return v
}

// LoadConfig reads and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:         strings.ToLower(v.GetString("ENV")),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		Port:        v.GetUint16("PORT"),
		DatabaseUrl: v.GetString("DATABASE_URL"),
		Reference: ReferenceConfig{
			Source:    strings.ToLower(v.GetString("REFERENCE_SOURCE")),
			CensusURL: v.GetString("CENSUS_URL"),
		},
		Lookup: LookupConfig{
			ZippopotamURL: v.GetString("ZIPPOPOTAM_URL"),
			Timeout:       v.GetDuration("PROVIDER_TIMEOUT"),
			MaxRetries:    v.GetInt("PROVIDER_MAX_RETRIES"),
			CacheSize:     v.GetInt("ZIP_CACHE_SIZE"),
		},
		Match: MatchConfig{
			Threshold: v.GetFloat64("MATCH_THRESHOLD"),
			Algorithm: strings.ToLower(v.GetString("MATCH_ALGORITHM")),
		},
		Events: EventsConfig{
			NatsURL: v.GetString("NATS_URL"),
			Subject: v.GetString("NATS_SUBJECT"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	// Validate env
	if cfg.Env != "dev" && cfg.Env != "prod" {
		log.Warn().Str("env", cfg.Env).Msg("Invalid environment. Using default: prod")
		cfg.Env = "prod"
	}

	// Validate log level
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		log.Warn().Str("value", cfg.LogLevel).Msg("Invalid log level. Using default: info")
		cfg.LogLevel = "info"
	}

	if cfg.Port == 0 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535")
	}

	switch provider.ProviderName(cfg.Reference.Source) {
	case provider.ProviderNameStatic, provider.ProviderNameCensus:
	case provider.ProviderNamePostgres:
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL required when REFERENCE_SOURCE is postgres")
		}
	default:
		return nil, fmt.Errorf("REFERENCE_SOURCE must be static, census or postgres, got %q", cfg.Reference.Source)
	}

	if cfg.Lookup.Timeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be a positive duration")
	}
	if cfg.Lookup.MaxRetries < 0 {
		return nil, fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative")
	}
	if cfg.Lookup.CacheSize < 0 {
		return nil, fmt.Errorf("ZIP_CACHE_SIZE must not be negative")
	}

	if cfg.Match.Threshold <= 0 || cfg.Match.Threshold > 1 {
		return nil, fmt.Errorf("MATCH_THRESHOLD must be in (0, 1], got %v", cfg.Match.Threshold)
	}
	if _, err := address.NewScorer(cfg.Match.Algorithm); err != nil {
		return nil, fmt.Errorf("MATCH_ALGORITHM: %w", err)
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	return cfg, nil
}

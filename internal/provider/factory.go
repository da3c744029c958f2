package provider

import (
	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/census"
	"github.com/dukerupert/addressd/internal/httpclient"
	"github.com/dukerupert/addressd/internal/postgres"
	"github.com/dukerupert/addressd/internal/reference"
	"github.com/dukerupert/addressd/internal/zippopotam"
)

// ProviderFactory creates provider instances from configuration.
type ProviderFactory interface {
	// CreateStateReference creates the state reference source.
	// Remote and database sources fall back to the built-in table and are
	// cached for the life of the process.
	CreateStateReference(config *ProviderConfig) (address.StateReference, error)

	// CreateLookup creates the ZIP lookup collaborators.
	CreateLookup(config *ProviderConfig) (*Lookup, error)
}

// Lookup bundles the two lookup roles, which a single provider serves.
type Lookup struct {
	Locator address.Locator
	Zips    address.ZipLister
}

// DefaultFactory implements ProviderFactory using constructor functions for each provider.
type DefaultFactory struct {
	validator ProviderValidator
	httpOpts  []httpclient.Option
}

// NewDefaultFactory creates a provider factory with configuration validation.
// httpOpts apply to every HTTP-backed provider.
func NewDefaultFactory(validator ProviderValidator, httpOpts ...httpclient.Option) (*DefaultFactory, error) {
	if validator == nil {
		return nil, ErrNilValidator
	}
	return &DefaultFactory{
		validator: validator,
		httpOpts:  httpOpts,
	}, nil
}

// MustNewDefaultFactory creates a provider factory with configuration validation.
// Panics if validator is nil. Use only during application initialization.
func MustNewDefaultFactory(validator ProviderValidator, httpOpts ...httpclient.Option) *DefaultFactory {
	factory, err := NewDefaultFactory(validator, httpOpts...)
	if err != nil {
		panic(err)
	}
	return factory
}

// CreateStateReference creates a state reference based on the provider name in config.
func (f *DefaultFactory) CreateStateReference(config *ProviderConfig) (address.StateReference, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	if config.Type != ProviderTypeReference {
		return nil, ErrProviderTypeMismatch(ProviderTypeReference, config.Type)
	}

	result := f.validator.ValidateReferenceConfig(config)
	if !result.Valid {
		return nil, ErrValidationFailed("reference", result.Errors)
	}

	builtin := reference.Named{Name: string(ProviderNameStatic), Source: reference.Builtin()}

	switch config.Name {
	case ProviderNameStatic:
		return builtin.Source, nil

	case ProviderNameCensus:
		url, _ := config.Config["url"].(string)
		primary := census.New(httpclient.New(f.httpOpts...), url)
		return reference.NewCache(reference.NewFallback(
			reference.Named{Name: string(ProviderNameCensus), Source: primary},
			builtin,
		)), nil

	case ProviderNamePostgres:
		pool, ok := config.Config["pool"].(postgres.Querier)
		if !ok {
			return nil, ErrMissingPool
		}
		return reference.NewCache(reference.NewFallback(
			reference.Named{Name: string(ProviderNamePostgres), Source: postgres.NewStateStore(pool)},
			builtin,
		)), nil

	default:
		return nil, ErrUnknownProvider("reference", config.Name)
	}
}

// CreateLookup creates the ZIP lookup collaborators based on the provider name in config.
func (f *DefaultFactory) CreateLookup(config *ProviderConfig) (*Lookup, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	if config.Type != ProviderTypeLookup {
		return nil, ErrProviderTypeMismatch(ProviderTypeLookup, config.Type)
	}

	result := f.validator.ValidateLookupConfig(config)
	if !result.Valid {
		return nil, ErrValidationFailed("lookup", result.Errors)
	}

	switch config.Name {
	case ProviderNameZippopotam:
		baseURL, _ := config.Config["base_url"].(string)
		if baseURL == "" {
			baseURL = zippopotam.DefaultBaseURL
		}
		cacheSize, err := extractInt(config.Config, "cache_size")
		if err != nil {
			return nil, err
		}

		opts := append(append([]httpclient.Option{}, f.httpOpts...), httpclient.WithBaseURL(baseURL))
		client := zippopotam.New(httpclient.New(opts...))

		locator, err := zippopotam.NewCachedLocator(client, cacheSize)
		if err != nil {
			return nil, err
		}
		return &Lookup{Locator: locator, Zips: client}, nil

	default:
		return nil, ErrUnknownProvider("lookup", config.Name)
	}
}

// extractInt safely extracts an optional int value from config map.
// A missing key yields zero.
func extractInt(config map[string]interface{}, key string) (int, error) {
	value, exists := config[key]
	if !exists {
		return 0, nil
	}

	// JSON numbers are typically float64
	if floatValue, ok := value.(float64); ok {
		return int(floatValue), nil
	}

	if intValue, ok := value.(int); ok {
		return intValue, nil
	}

	if int64Value, ok := value.(int64); ok {
		return int(int64Value), nil
	}

	return 0, ErrConfigKeyWrongType(key, "numeric", value)
}

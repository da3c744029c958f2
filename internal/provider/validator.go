package provider

import (
	"fmt"
	"net/url"
)

// ProviderValidator validates provider configurations before the factory
// builds an instance from them.
type ProviderValidator interface {
	// ValidateReferenceConfig validates state reference provider configuration.
	ValidateReferenceConfig(config *ProviderConfig) *ValidationResult

	// ValidateLookupConfig validates ZIP lookup provider configuration.
	ValidateLookupConfig(config *ProviderConfig) *ValidationResult
}

// DefaultValidator implements ProviderValidator with provider-specific validation rules.
type DefaultValidator struct{}

// NewDefaultValidator creates a provider configuration validator.
func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{}
}

// ValidateReferenceConfig validates state reference provider configuration.
func (v *DefaultValidator) ValidateReferenceConfig(config *ProviderConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !checkHeader(config, ProviderTypeReference, result) {
		return result
	}

	switch config.Name {
	case ProviderNameStatic:
		// No config required
	case ProviderNameCensus:
		optionalURL(config.Config, "url", result)
	case ProviderNamePostgres:
		if config.Config["pool"] == nil {
			result.AddError("missing required field: pool")
		}
	default:
		result.AddError("unknown reference provider: " + string(config.Name))
	}

	return result
}

// ValidateLookupConfig validates ZIP lookup provider configuration.
func (v *DefaultValidator) ValidateLookupConfig(config *ProviderConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !checkHeader(config, ProviderTypeLookup, result) {
		return result
	}

	switch config.Name {
	case ProviderNameZippopotam:
		optionalURL(config.Config, "base_url", result)
		optionalIntRange(config.Config, "cache_size", 0, 1_000_000, result)
	default:
		result.AddError("unknown lookup provider: " + string(config.Name))
	}

	return result
}

func checkHeader(config *ProviderConfig, want ProviderType, result *ValidationResult) bool {
	if config == nil {
		result.AddError("config cannot be nil")
		return false
	}
	if config.Type != want {
		result.AddError("config type must be " + string(want))
		return false
	}
	if config.Config == nil {
		result.AddError("config map cannot be nil")
		return false
	}
	return true
}

// optionalURL validates that a config field, when present, is an absolute http(s) URL.
func optionalURL(config map[string]interface{}, key string, result *ValidationResult) string {
	value, exists := config[key]
	if !exists {
		return ""
	}

	strValue, ok := value.(string)
	if !ok {
		result.AddError("field " + key + " must be a string")
		return ""
	}
	if strValue == "" {
		return ""
	}

	u, err := url.Parse(strValue)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.AddError("field " + key + " must be an http(s) URL")
		return ""
	}

	return strValue
}

// optionalIntRange validates that a config field, when present, is an int
// within range [min, max].
func optionalIntRange(config map[string]interface{}, key string, min, max int, result *ValidationResult) int {
	value, exists := config[key]
	if !exists {
		return 0
	}

	var intValue int
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			result.AddError("field " + key + " must be a whole number")
			return 0
		}
		intValue = int(v)
	case int:
		intValue = v
	case int64:
		intValue = int(v)
	default:
		result.AddError("field " + key + " must be a number")
		return 0
	}

	if intValue < min || intValue > max {
		result.AddError(fmt.Sprintf("field %s must be between %d and %d", key, min, max))
		return 0
	}

	return intValue
}

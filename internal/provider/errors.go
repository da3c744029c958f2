package provider

import "fmt"

// These constants mirror domain error codes to avoid circular imports.
const (
	codeInvalid = "invalid"
	codeNotImpl = "not_implemented"
)

// ProviderError represents a provider-specific error with a code and message.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for status mapping.
func (e *ProviderError) ErrorCode() string {
	return e.Code
}

func newProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

var (
	// ErrNilValidator is returned when a nil validator is passed to NewDefaultFactory.
	ErrNilValidator = newProviderError(codeInvalid, "validator cannot be nil")

	// ErrNilConfig is returned when a nil config is passed to factory methods.
	ErrNilConfig = newProviderError(codeInvalid, "config cannot be nil")

	// ErrMissingPool is returned when the postgres reference has no database handle.
	ErrMissingPool = newProviderError(codeInvalid, "missing or invalid pool in config")
)

// ErrProviderTypeMismatch creates an error for provider type mismatches.
func ErrProviderTypeMismatch(expected, got ProviderType) error {
	return &ProviderError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("expected provider type %s, got %s", expected, got),
	}
}

// ErrValidationFailed creates an error for config validation failures.
func ErrValidationFailed(providerType string, errors []string) error {
	return &ProviderError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("%s config validation failed: %v", providerType, errors),
	}
}

// ErrUnknownProvider creates an error for unknown provider names.
func ErrUnknownProvider(providerType string, name ProviderName) error {
	return &ProviderError{
		Code:    codeNotImpl,
		Message: fmt.Sprintf("unknown %s provider: %s", providerType, name),
	}
}

// ErrConfigKeyWrongType creates an error for config keys with wrong type.
func ErrConfigKeyWrongType(key string, expectedType string, gotType interface{}) error {
	return &ProviderError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("config key %q must be %s, got %T", key, expectedType, gotType),
	}
}

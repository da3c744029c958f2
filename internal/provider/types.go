package provider

// ProviderType represents the category of provider service.
type ProviderType string

const (
	// ProviderTypeReference supplies the state table (codes, names, cities).
	ProviderTypeReference ProviderType = "reference"

	// ProviderTypeLookup resolves ZIP codes and lists ZIPs for a city.
	ProviderTypeLookup ProviderType = "lookup"
)

// ProviderName represents specific provider implementations.
type ProviderName string

const (
	// Reference providers
	ProviderNameStatic   ProviderName = "static"   // Built-in table, no cities
	ProviderNameCensus   ProviderName = "census"   // Census Bureau population API
	ProviderNamePostgres ProviderName = "postgres" // states/state_cities tables

	// Lookup providers
	ProviderNameZippopotam ProviderName = "zippopotam"
)

// ProviderConfig selects and configures one provider.
// Config values come from application settings; "pool" carries a
// postgres.Querier for database-backed providers.
type ProviderConfig struct {
	Type   ProviderType
	Name   ProviderName
	Config map[string]interface{}
}

// ValidationResult represents the outcome of validating provider configuration.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError adds an error message to the validation result.
func (v *ValidationResult) AddError(err string) {
	v.Valid = false
	v.Errors = append(v.Errors, err)
}

// IsValidProviderNameForType checks if a provider name is valid for the given provider type.
func IsValidProviderNameForType(name ProviderName, providerType ProviderType) bool {
	switch providerType {
	case ProviderTypeReference:
		switch name {
		case ProviderNameStatic, ProviderNameCensus, ProviderNamePostgres:
			return true
		}
	case ProviderTypeLookup:
		switch name {
		case ProviderNameZippopotam:
			return true
		}
	}
	return false
}

package extension

import "time"

// Config holds the Marketplace extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.marketplace" or "marketplace" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for marketplace routes (default: "/marketplace").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Name is the marketplace display name.
	Name string `json:"name" mapstructure:"name" yaml:"name"`

	// Beneficiaries is the fixed donation beneficiary set. Start fails if
	// it is empty and no beneficiaries were provided programmatically.
	Beneficiaries []string `json:"beneficiaries" mapstructure:"beneficiaries" yaml:"beneficiaries"`

	// ServiceOwner is the account that receives service payments.
	// Defaults to the first beneficiary.
	ServiceOwner string `json:"service_owner" mapstructure:"service_owner" yaml:"service_owner"`

	// SeedDefaultServices seeds the stock service offerings on start.
	SeedDefaultServices bool `json:"seed_default_services" mapstructure:"seed_default_services" yaml:"seed_default_services"`

	// TransferTimeout bounds the fund-transfer leg of every mutating call
	// (default: 10s).
	TransferTimeout time.Duration `json:"transfer_timeout" mapstructure:"transfer_timeout" yaml:"transfer_timeout"`

	// Currency is the smallest-unit currency the in-memory bank is
	// denominated in when no Transferor is injected (default: "wei").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TransferTimeout: 10 * time.Second,
		Currency:        "wei",
	}
}

package extension

import (
	"time"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/funds"
	"github.com/xraph/marketplace/plugin"
	"github.com/xraph/marketplace/store"
)

// Option configures the Marketplace Forge extension.
type Option func(*Extension)

// WithStore sets the store for the marketplace engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferor sets the fund-transfer primitive for the engine.
func WithTransferor(t funds.Transferor) Option {
	return func(e *Extension) {
		e.transferor = t
	}
}

// WithEngineOption passes a marketplace.Option through to the underlying engine.
func WithEngineOption(opt marketplace.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a marketplace plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, marketplace.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for marketplace routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithName sets the marketplace display name.
func WithName(name string) Option {
	return func(e *Extension) { e.config.Name = name }
}

// WithBeneficiaries sets the donation beneficiary set.
func WithBeneficiaries(accounts ...string) Option {
	return func(e *Extension) { e.config.Beneficiaries = accounts }
}

// WithServiceOwner sets the account that receives service payments.
func WithServiceOwner(account string) Option {
	return func(e *Extension) { e.config.ServiceOwner = account }
}

// WithSeedDefaultServices seeds the stock service offerings on start.
func WithSeedDefaultServices() Option {
	return func(e *Extension) { e.config.SeedDefaultServices = true }
}

// WithTransferTimeout bounds the fund-transfer leg of every mutating call.
func WithTransferTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.TransferTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

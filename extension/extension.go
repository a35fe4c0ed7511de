// Package extension provides the Forge extension adapter for Marketplace.
//
// It implements the forge.Extension interface to integrate Marketplace
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.marketplace" or
// "marketplace" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/funds"
	"github.com/xraph/marketplace/service"
	"github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/store/memory"
	"github.com/xraph/marketplace/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "marketplace"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Transactional marketplace ledger engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Marketplace as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *marketplace.Marketplace
	store      store.Store
	transferor funds.Transferor
	engineOpts []marketplace.Option
}

// New creates a new Marketplace Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Marketplace instance.
// This is nil until Register is called.
func (e *Extension) Engine() *marketplace.Marketplace { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the marketplace engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Use the in-memory bank if no transferor was provided programmatically.
	if e.transferor == nil {
		e.transferor = funds.NewBank(e.config.Currency)
	}

	eng := marketplace.New(e.store, e.transferor, e.buildEngineOpts()...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*marketplace.Marketplace, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("marketplace: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("marketplace: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs marketplace.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []marketplace.Option {
	opts := make([]marketplace.Option, 0, len(e.engineOpts)+6)

	if e.config.DisableMigrate {
		opts = append(opts, marketplace.WithoutMigrate())
	}

	if e.config.Name != "" {
		opts = append(opts, marketplace.WithName(e.config.Name))
	}

	if len(e.config.Beneficiaries) > 0 {
		beneficiaries := make([]types.Account, len(e.config.Beneficiaries))
		for i, b := range e.config.Beneficiaries {
			beneficiaries[i] = types.Account(b)
		}
		opts = append(opts, marketplace.WithBeneficiaries(beneficiaries...))
	}

	if e.config.ServiceOwner != "" {
		opts = append(opts, marketplace.WithServiceOwner(types.Account(e.config.ServiceOwner)))
	}

	if e.config.SeedDefaultServices {
		opts = append(opts, marketplace.WithServiceOfferings(service.Defaults()...))
	}

	if e.config.TransferTimeout > 0 {
		opts = append(opts, marketplace.WithTransferTimeout(e.config.TransferTimeout))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("marketplace: configuration is required but not found in config files; " +
				"ensure 'extensions.marketplace' or 'marketplace' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("marketplace: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("beneficiaries", len(e.config.Beneficiaries)),
		forge.F("transfer_timeout", e.config.TransferTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.marketplace" first (namespaced pattern).
	if cm.IsSet("extensions.marketplace") {
		if err := cm.Bind("extensions.marketplace", &cfg); err == nil {
			e.Logger().Debug("marketplace: loaded config from file",
				forge.F("key", "extensions.marketplace"),
			)
			return cfg, true
		}
		e.Logger().Warn("marketplace: failed to bind extensions.marketplace config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "marketplace" key.
	if cm.IsSet("marketplace") {
		if err := cm.Bind("marketplace", &cfg); err == nil {
			e.Logger().Debug("marketplace: loaded config from file",
				forge.F("key", "marketplace"),
			)
			return cfg, true
		}
		e.Logger().Warn("marketplace: failed to bind marketplace config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.TransferTimeout == 0 {
		cfg.TransferTimeout = defaults.TransferTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.SeedDefaultServices {
		yamlConfig.SeedDefaultServices = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Name == "" && programmaticConfig.Name != "" {
		yamlConfig.Name = programmaticConfig.Name
	}
	if yamlConfig.ServiceOwner == "" && programmaticConfig.ServiceOwner != "" {
		yamlConfig.ServiceOwner = programmaticConfig.ServiceOwner
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Collection/duration fields: YAML takes precedence, programmatic fills gaps.
	if len(yamlConfig.Beneficiaries) == 0 && len(programmaticConfig.Beneficiaries) > 0 {
		yamlConfig.Beneficiaries = programmaticConfig.Beneficiaries
	}
	if yamlConfig.TransferTimeout == 0 && programmaticConfig.TransferTimeout != 0 {
		yamlConfig.TransferTimeout = programmaticConfig.TransferTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}

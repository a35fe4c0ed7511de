package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onProductCreated   []OnProductCreated
	onProductPurchased []OnProductPurchased
	onProductRefunded  []OnProductRefunded
	onDonationReceived []OnDonationReceived
	onServicePurchased []OnServicePurchased
	onTransferFailed   []OnTransferFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnProductCreated); ok {
		r.onProductCreated = append(r.onProductCreated, v)
	}
	if v, ok := p.(OnProductPurchased); ok {
		r.onProductPurchased = append(r.onProductPurchased, v)
	}
	if v, ok := p.(OnProductRefunded); ok {
		r.onProductRefunded = append(r.onProductRefunded, v)
	}
	if v, ok := p.(OnDonationReceived); ok {
		r.onDonationReceived = append(r.onDonationReceived, v)
	}
	if v, ok := p.(OnServicePurchased); ok {
		r.onServicePurchased = append(r.onServicePurchased, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnProductCreated)(nil)).Elem(), "OnProductCreated")
	checkInterface(reflect.TypeOf((*OnProductPurchased)(nil)).Elem(), "OnProductPurchased")
	checkInterface(reflect.TypeOf((*OnProductRefunded)(nil)).Elem(), "OnProductRefunded")
	checkInterface(reflect.TypeOf((*OnDonationReceived)(nil)).Elem(), "OnDonationReceived")
	checkInterface(reflect.TypeOf((*OnServicePurchased)(nil)).Elem(), "OnServicePurchased")
	checkInterface(reflect.TypeOf((*OnTransferFailed)(nil)).Elem(), "OnTransferFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, m interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, m)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductCreated emits a product created event.
func (r *Registry) EmitProductCreated(ctx context.Context, p interface{}) {
	r.mu.RLock()
	plugins := r.onProductCreated
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnProductCreated(ctx, p)
		}); err != nil {
			r.logger.Warn("plugin OnProductCreated failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductPurchased emits a product purchased event.
func (r *Registry) EmitProductPurchased(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onProductPurchased
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnProductPurchased(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnProductPurchased failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductRefunded emits a product refunded event.
func (r *Registry) EmitProductRefunded(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onProductRefunded
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnProductRefunded(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnProductRefunded failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// EmitDonationReceived emits a donation received event.
func (r *Registry) EmitDonationReceived(ctx context.Context, rec interface{}) {
	r.mu.RLock()
	plugins := r.onDonationReceived
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnDonationReceived(ctx, rec)
		}); err != nil {
			r.logger.Warn("plugin OnDonationReceived failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// EmitServicePurchased emits a service purchased event.
func (r *Registry) EmitServicePurchased(ctx context.Context, evt interface{}) {
	r.mu.RLock()
	plugins := r.onServicePurchased
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnServicePurchased(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnServicePurchased failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, op string, failure error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, pl := range plugins {
		if err := r.callWithTimeout(ctx, pl.Name(), func() error {
			return pl.OnTransferFailed(ctx, op, failure)
		}); err != nil {
			r.logger.Warn("plugin OnTransferFailed failed",
				"plugin", pl.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the trade pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

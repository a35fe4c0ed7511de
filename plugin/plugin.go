// Package plugin provides an extensible plugin system for Marketplace.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, m interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnProductCreated is called when a new product enters the catalog.
type OnProductCreated interface {
	Plugin
	OnProductCreated(ctx context.Context, p interface{}) error
}

// ──────────────────────────────────────────────────
// Trade hooks
// ──────────────────────────────────────────────────

// OnProductPurchased is called after a purchase commits.
type OnProductPurchased interface {
	Plugin
	OnProductPurchased(ctx context.Context, receipt interface{}) error
}

// OnProductRefunded is called after a refund commits.
type OnProductRefunded interface {
	Plugin
	OnProductRefunded(ctx context.Context, receipt interface{}) error
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnDonationReceived is called after a donation is split and recorded.
type OnDonationReceived interface {
	Plugin
	OnDonationReceived(ctx context.Context, rec interface{}) error
}

// ──────────────────────────────────────────────────
// Service catalog hooks
// ──────────────────────────────────────────────────

// OnServicePurchased is called after a service payment commits.
type OnServicePurchased interface {
	Plugin
	OnServicePurchased(ctx context.Context, evt interface{}) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnTransferFailed is called when the fund-transfer leg of a mutating call
// fails. The ledger state is unchanged when this fires.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, op string, err error) error
}

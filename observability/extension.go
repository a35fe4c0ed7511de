// Package observability provides a metrics extension for Marketplace that
// records lifecycle event counts through an injected MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/marketplace/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnProductCreated   = (*MetricsExtension)(nil)
	_ plugin.OnProductPurchased = (*MetricsExtension)(nil)
	_ plugin.OnProductRefunded  = (*MetricsExtension)(nil)
	_ plugin.OnDonationReceived = (*MetricsExtension)(nil)
	_ plugin.OnServicePurchased = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Marketplace plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	ProductCreated Counter

	// Trade metrics
	ProductPurchased Counter
	ProductRefunded  Counter

	// Treasury metrics
	DonationReceived Counter

	// Service metrics
	ServicePurchased Counter

	// Error metrics
	TransferFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Catalog metrics
		ProductCreated: factory.Counter("marketplace.product.created"),

		// Trade metrics
		ProductPurchased: factory.Counter("marketplace.product.purchased"),
		ProductRefunded:  factory.Counter("marketplace.product.refunded"),

		// Treasury metrics
		DonationReceived: factory.Counter("marketplace.donation.received"),

		// Service metrics
		ServicePurchased: factory.Counter("marketplace.service.purchased"),

		// Error metrics
		TransferFailures: factory.Counter("marketplace.transfer.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnProductCreated implements plugin.OnProductCreated.
func (m *MetricsExtension) OnProductCreated(_ context.Context, _ interface{}) error {
	m.ProductCreated.Inc()
	return nil
}

// OnProductPurchased implements plugin.OnProductPurchased.
func (m *MetricsExtension) OnProductPurchased(_ context.Context, _ interface{}) error {
	m.ProductPurchased.Inc()
	return nil
}

// OnProductRefunded implements plugin.OnProductRefunded.
func (m *MetricsExtension) OnProductRefunded(_ context.Context, _ interface{}) error {
	m.ProductRefunded.Inc()
	return nil
}

// OnDonationReceived implements plugin.OnDonationReceived.
func (m *MetricsExtension) OnDonationReceived(_ context.Context, _ interface{}) error {
	m.DonationReceived.Inc()
	return nil
}

// OnServicePurchased implements plugin.OnServicePurchased.
func (m *MetricsExtension) OnServicePurchased(_ context.Context, _ interface{}) error {
	m.ServicePurchased.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ string, _ error) error {
	m.TransferFailures.Inc()
	return nil
}

// Package audithook bridges Marketplace lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any specific audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/marketplace/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnProductCreated   = (*Extension)(nil)
	_ plugin.OnProductPurchased = (*Extension)(nil)
	_ plugin.OnProductRefunded  = (*Extension)(nil)
	_ plugin.OnDonationReceived = (*Extension)(nil)
	_ plugin.OnServicePurchased = (*Extension)(nil)
	_ plugin.OnTransferFailed   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Marketplace lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnProductCreated implements plugin.OnProductCreated.
func (e *Extension) OnProductCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProductCreated, SeverityInfo, OutcomeSuccess,
		ResourceProduct, "", CategoryCatalog, nil,
		"event", "product_created",
	)
}

// ──────────────────────────────────────────────────
// Trade hooks
// ──────────────────────────────────────────────────

// OnProductPurchased implements plugin.OnProductPurchased.
func (e *Extension) OnProductPurchased(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProductPurchased, SeverityInfo, OutcomeSuccess,
		ResourceProduct, "", CategoryTrade, nil,
		"event", "product_purchased",
	)
}

// OnProductRefunded implements plugin.OnProductRefunded.
func (e *Extension) OnProductRefunded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProductRefunded, SeverityInfo, OutcomeSuccess,
		ResourceProduct, "", CategoryTrade, nil,
		"event", "product_refunded",
	)
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnDonationReceived implements plugin.OnDonationReceived.
func (e *Extension) OnDonationReceived(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionDonationReceived, SeverityInfo, OutcomeSuccess,
		ResourceDonation, "", CategoryTreasury, nil,
		"event", "donation_received",
	)
}

// ──────────────────────────────────────────────────
// Service hooks
// ──────────────────────────────────────────────────

// OnServicePurchased implements plugin.OnServicePurchased.
func (e *Extension) OnServicePurchased(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionServicePurchased, SeverityInfo, OutcomeSuccess,
		ResourceService, "", CategoryPayment, nil,
		"event", "service_purchased",
	)
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, op string, failure error) error {
	return e.record(ctx, ActionTransferFailed, SeverityWarning, OutcomeFailure,
		ResourceTransfer, "", CategoryPayment, nil,
		"operation", op,
		"reason", failure.Error(),
	)
}

// record builds and submits an audit event if the action is enabled.
func (e *Extension) record(ctx context.Context, action, severity, outcome, resource, resourceID, category string, metadata map[string]any, kv ...string) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	if metadata == nil {
		metadata = make(map[string]any, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		metadata[kv[i]] = kv[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   metadata,
		Outcome:    outcome,
		Severity:   severity,
	}

	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("audit record failed",
			"action", action,
			"error", err,
		)
		return fmt.Errorf("audithook: record %s: %w", action, err)
	}
	return nil
}

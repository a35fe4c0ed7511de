// Package event defines the append-only event log the engine writes on
// every successful mutation. UI layers poll this log (or the snapshot
// queries) to re-synchronize their view after each transaction; the log is
// the durable form of the receipts the mutating calls return.
package event

import (
	"time"

	"github.com/xraph/marketplace/id"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/types"
)

// Kind discriminates event log records.
type Kind string

const (
	KindProductCreated   Kind = "product.created"
	KindProductPurchased Kind = "product.purchased"
	KindProductRefunded  Kind = "product.refunded"
	KindDonationReceived Kind = "donation.received"
	KindServicePurchased Kind = "service.purchased"
)

// Record is one entry in the event log. The populated fields depend on
// Kind: product events carry the full product field set, donation events
// carry donor and amount, service events carry the type and buyer.
type Record struct {
	ID        id.EventID `json:"id"`
	Kind      Kind       `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`

	// Product events
	ProductID uint64           `json:"product_id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Price     types.Money      `json:"price,omitzero"`
	Owner     types.Account    `json:"owner,omitempty"`
	Purchased bool             `json:"purchased,omitempty"`
	Category  product.Category `json:"category,omitempty"`

	// Donation events
	Donor  types.Account `json:"donor,omitempty"`
	Amount types.Money   `json:"amount,omitzero"`

	// Service events
	ServiceType string        `json:"service_type,omitempty"`
	Buyer       types.Account `json:"buyer,omitempty"`
}

// ListOpts filters event log queries.
type ListOpts struct {
	Kind   Kind // zero value matches all kinds
	Limit  int
	Offset int
}

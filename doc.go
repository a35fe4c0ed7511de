// Package marketplace provides a transactional marketplace ledger engine
// for Go applications.
//
// Marketplace is designed as a library, not a service. Import it directly
// into your Go application and put your own transport in front of it. It
// provides:
//
//   - A product/ownership ledger with sequential ids and a fixed category enum
//   - Escrow-style trades: payment and state transition succeed or fail as one unit
//   - Refund reversal that restores products to the available-for-sale state
//   - A donation treasury splitting contributions across a fixed beneficiary set
//   - A secondary service catalog with direct-to-owner payments
//   - An append-only, queryable event log for UI re-synchronization
//
// # Quick Start
//
// Create an engine with your preferred store and fund-transfer primitive:
//
//	import (
//	    "github.com/xraph/marketplace"
//	    "github.com/xraph/marketplace/funds"
//	    "github.com/xraph/marketplace/store/memory"
//	)
//
//	bank := funds.NewBank("wei")
//	m := marketplace.New(memory.New(), bank,
//	    marketplace.WithBeneficiaries("alice", "bob", "carol"),
//	)
//
//	ctx := context.Background()
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Stop()
//
// # Core Concepts
//
// Products are created into the catalog and traded atomically:
//
//	id, err := m.CreateProduct(ctx, "iPhone X", types.Wei(1), product.CategoryElectronics, seller)
//	receipt, err := m.PurchaseProduct(ctx, id, buyer, types.Wei(1))
//
// Purchases demand the exact price, reject self-trades and double
// purchases, and move funds and ownership together: if the transfer leg
// fails, no ledger state changes.
//
// Donations are split evenly (integer division) across the beneficiary set
// fixed at construction; the remainder goes to the first beneficiary:
//
//	rec, err := m.Donate(ctx, donor, types.Wei(900))
//
// Every successful mutation appends a record to the event log, which UI
// layers poll to refresh their full view:
//
//	events, err := m.Events(ctx, event.ListOpts{Kind: event.KindProductPurchased})
//
// # Stores
//
// The engine is storage-agnostic. Drivers ship for in-memory maps
// (store/memory), SQLite (store/sqlite) and MongoDB (store/mongo).
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, wei for chain-denominated values).
package marketplace

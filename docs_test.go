package marketplace_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/funds"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/store/memory"
	"github.com/xraph/marketplace/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use SQLite or MongoDB in production)
		store := memory.New()

		// Pre-funded accounts mirror chain accounts in demos.
		bank := funds.NewBank("wei")
		if err := bank.Deposit("buyer", types.Wei(2000)); err != nil {
			t.Fatal(err)
		}

		m := marketplace.New(store, bank,
			marketplace.WithLogger(slog.Default()),
			marketplace.WithBeneficiaries("alice", "bob", "carol"),
		)

		// Start the engine
		ctx := context.Background()
		if err := m.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer m.Stop()

		// Create a product and trade it atomically
		pid, err := m.CreateProduct(ctx, "iPhone X", types.Wei(1000), product.CategoryElectronics, "seller")
		if err != nil {
			t.Fatal(err)
		}

		receipt, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("purchased product %d for %s\n", receipt.ProductID, receipt.Price.String())

		// Donate to the beneficiary set
		rec, err := m.Donate(ctx, "buyer", types.Wei(900))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("donation split across %d beneficiaries\n", len(rec.Shares))

		// Poll the event log to refresh a UI view
		events, err := m.Events(ctx, event.ListOpts{Kind: event.KindProductPurchased})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 {
			t.Fatalf("expected 1 purchase event, got %d", len(events))
		}
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(4900)   // $49.00
		_ = types.Wei(1000)   // 1000 wei
		_ = types.Zero("wei") // 0 wei

		// Arithmetic
		m1 := types.Wei(100)
		m2 := types.Wei(200)
		_ = m1.Add(m2)     // 300 wei
		_ = m1.Multiply(3) // 300 wei

		// Even splitting with explicit remainder
		share, remainder := types.Wei(1000).SplitEven(3)
		if share.Amount != 333 || remainder.Amount != 1 {
			t.Errorf("SplitEven: got %v + %v", share, remainder)
		}

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String() // "100 wei"
	})
}

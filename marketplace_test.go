package marketplace_test

import (
	"context"
	"errors"
	"testing"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/funds"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	"github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/store/memory"
	"github.com/xraph/marketplace/types"
)

var testBeneficiaries = []types.Account{"owner1", "owner2", "owner3"}

// newTestMarketplace starts an engine over a fresh memory store and bank.
func newTestMarketplace(t *testing.T, opts ...marketplace.Option) (*marketplace.Marketplace, *funds.Bank) {
	t.Helper()

	bank := funds.NewBank("wei")
	opts = append([]marketplace.Option{
		marketplace.WithBeneficiaries(testBeneficiaries...),
	}, opts...)
	m := marketplace.New(memory.New(), bank, opts...)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop() })

	return m, bank
}

func mustCreate(t *testing.T, m *marketplace.Marketplace, name string, price types.Money, owner types.Account) uint64 {
	t.Helper()
	pid, err := m.CreateProduct(context.Background(), name, price, product.CategoryElectronics, owner)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	return pid
}

func TestStartRequiresBeneficiaries(t *testing.T) {
	m := marketplace.New(memory.New(), funds.NewBank("wei"))
	err := m.Start(context.Background())
	if !errors.Is(err, marketplace.ErrNoBeneficiaries) {
		t.Errorf("got %v, want ErrNoBeneficiaries", err)
	}
}

func TestCreateProduct(t *testing.T) {
	m, _ := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "alice")
	if pid != 1 {
		t.Errorf("first product id: got %d, want 1", pid)
	}

	pid = mustCreate(t, m, "Leather Jacket", types.Wei(500), "bob")
	if pid != 2 {
		t.Errorf("second product id: got %d, want 2", pid)
	}

	p, err := m.Product(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "iPhone X" || p.Owner != "alice" || p.Purchased {
		t.Errorf("product state: %+v", p)
	}
	if !p.Price.Equal(types.Wei(1000)) {
		t.Errorf("price: got %v, want %v", p.Price, types.Wei(1000))
	}

	count, err := m.ProductCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("ProductCount: got %d, want 2", count)
	}

	events, err := m.Events(ctx, event.ListOpts{Kind: event.KindProductCreated})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("created events: got %d, want 2", len(events))
	}
	if events[0].ProductID != 1 || events[0].Name != "iPhone X" || events[0].Owner != "alice" {
		t.Errorf("event contents: %+v", events[0])
	}
}

func TestCreateProductValidation(t *testing.T) {
	m, _ := newTestMarketplace(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		product  string
		price    types.Money
		category product.Category
		creator  types.Account
		sentinel error
	}{
		{"empty name", "", types.Wei(100), product.CategoryBooks, "alice", marketplace.ErrInvalidName},
		{"blank name", "   ", types.Wei(100), product.CategoryBooks, "alice", marketplace.ErrInvalidName},
		{"zero price", "Book", types.Wei(0), product.CategoryBooks, "alice", marketplace.ErrInvalidPrice},
		{"negative price", "Book", types.Wei(-5), product.CategoryBooks, "alice", marketplace.ErrInvalidPrice},
		{"unknown category", "Book", types.Wei(100), "Furniture", "alice", marketplace.ErrInvalidCategory},
		{"empty creator", "Book", types.Wei(100), product.CategoryBooks, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateProduct(ctx, tt.product, tt.price, tt.category, tt.creator)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("got %v, want %v", err, tt.sentinel)
			}
			if !marketplace.IsValidation(err) {
				t.Errorf("IsValidation(%v) = false, want true", err)
			}
		})
	}

	// Rejected creations never consume an id or touch the ledger.
	count, err := m.ProductCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("ProductCount after rejected creations: got %d, want 0", count)
	}
}

func TestPurchaseProduct(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")
	if err := bank.Deposit("buyer", types.Wei(1500)); err != nil {
		t.Fatal(err)
	}

	receipt, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000))
	if err != nil {
		t.Fatalf("PurchaseProduct failed: %v", err)
	}

	if receipt.ProductID != pid || receipt.Owner != "buyer" || !receipt.Purchased {
		t.Errorf("receipt: %+v", receipt)
	}
	if receipt.ID.IsNil() {
		t.Error("receipt id is nil")
	}

	// Exact price moved buyer -> seller.
	if got := bank.Balance("buyer"); !got.Equal(types.Wei(500)) {
		t.Errorf("buyer balance: got %v, want %v", got, types.Wei(500))
	}
	if got := bank.Balance("seller"); !got.Equal(types.Wei(1000)) {
		t.Errorf("seller balance: got %v, want %v", got, types.Wei(1000))
	}

	p, err := m.Product(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if p.Owner != "buyer" || !p.Purchased || p.Seller != "seller" {
		t.Errorf("product state: %+v", p)
	}

	buyerOwned, _ := m.OwnedItems(ctx, "buyer")
	if len(buyerOwned) != 1 || buyerOwned[0] != pid {
		t.Errorf("buyer owned: got %v, want [%d]", buyerOwned, pid)
	}
	sellerOwned, _ := m.OwnedItems(ctx, "seller")
	if len(sellerOwned) != 0 {
		t.Errorf("seller owned: got %v, want empty", sellerOwned)
	}
}

func TestPurchaseProductRejections(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")
	_ = bank.Deposit("buyer", types.Wei(5000))

	t.Run("not found", func(t *testing.T) {
		_, err := m.PurchaseProduct(ctx, 99, "buyer", types.Wei(1000))
		if !marketplace.IsNotFound(err) {
			t.Errorf("got %v, want not-found", err)
		}
	})

	t.Run("price mismatch", func(t *testing.T) {
		_, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(999))
		if !errors.Is(err, marketplace.ErrPriceMismatch) {
			t.Errorf("got %v, want ErrPriceMismatch", err)
		}
		if !marketplace.IsTradeRejected(err) {
			t.Errorf("IsTradeRejected(%v) = false, want true", err)
		}
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		_, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(2000))
		if !errors.Is(err, marketplace.ErrPriceMismatch) {
			t.Errorf("got %v, want ErrPriceMismatch", err)
		}
	})

	t.Run("self trade", func(t *testing.T) {
		_, err := m.PurchaseProduct(ctx, pid, "seller", types.Wei(1000))
		if !errors.Is(err, marketplace.ErrSelfTrade) {
			t.Errorf("got %v, want ErrSelfTrade", err)
		}
	})

	// Nothing above moved funds or state.
	if got := bank.Balance("buyer"); !got.Equal(types.Wei(5000)) {
		t.Errorf("buyer balance: got %v, want unchanged", got)
	}
	p, _ := m.Product(ctx, pid)
	if p.Owner != "seller" || p.Purchased {
		t.Errorf("product state changed by rejected purchases: %+v", p)
	}

	t.Run("already purchased", func(t *testing.T) {
		if _, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000)); err != nil {
			t.Fatal(err)
		}
		_ = bank.Deposit("other", types.Wei(1000))
		_, err := m.PurchaseProduct(ctx, pid, "other", types.Wei(1000))
		if !errors.Is(err, marketplace.ErrAlreadyPurchased) {
			t.Errorf("got %v, want ErrAlreadyPurchased", err)
		}
	})
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")
	_ = bank.Deposit("buyer", types.Wei(100))

	_, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000))
	if !marketplace.IsTransferError(err) {
		t.Fatalf("got %v, want transfer error", err)
	}
	if !errors.Is(err, funds.ErrInsufficientFunds) {
		t.Errorf("cause not preserved: %v", err)
	}

	// Failed transfer leg leaves the ledger untouched.
	p, _ := m.Product(ctx, pid)
	if p.Owner != "seller" || p.Purchased {
		t.Errorf("product state after failed transfer: %+v", p)
	}
	if got := bank.Balance("buyer"); !got.Equal(types.Wei(100)) {
		t.Errorf("buyer balance: got %v, want unchanged", got)
	}
	events, _ := m.Events(ctx, event.ListOpts{Kind: event.KindProductPurchased})
	if len(events) != 0 {
		t.Errorf("purchase events after failed transfer: got %d, want 0", len(events))
	}
}

func TestRefundProduct(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")
	_ = bank.Deposit("buyer", types.Wei(1000))
	if _, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000)); err != nil {
		t.Fatal(err)
	}

	receipt, err := m.RefundProduct(ctx, pid, "buyer")
	if err != nil {
		t.Fatalf("RefundProduct failed: %v", err)
	}
	if receipt.Owner != "seller" || receipt.Purchased {
		t.Errorf("refund receipt: %+v", receipt)
	}

	// The price went back and ownership reverted.
	if got := bank.Balance("buyer"); !got.Equal(types.Wei(1000)) {
		t.Errorf("buyer balance: got %v, want %v", got, types.Wei(1000))
	}
	if got := bank.Balance("seller"); !got.IsZero() {
		t.Errorf("seller balance: got %v, want zero", got)
	}

	p, _ := m.Product(ctx, pid)
	if p.Owner != "seller" || p.Purchased || !p.Seller.IsZero() {
		t.Errorf("product state after refund: %+v", p)
	}

	sellerOwned, _ := m.OwnedItems(ctx, "seller")
	if len(sellerOwned) != 1 || sellerOwned[0] != pid {
		t.Errorf("seller owned: got %v, want [%d]", sellerOwned, pid)
	}
	buyerOwned, _ := m.OwnedItems(ctx, "buyer")
	if len(buyerOwned) != 0 {
		t.Errorf("buyer owned: got %v, want empty", buyerOwned)
	}
}

func TestRefundProductRejections(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")

	t.Run("not purchased", func(t *testing.T) {
		_, err := m.RefundProduct(ctx, pid, "seller")
		if !errors.Is(err, marketplace.ErrNotPurchased) {
			t.Errorf("got %v, want ErrNotPurchased", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := m.RefundProduct(ctx, 99, "buyer")
		if !marketplace.IsNotFound(err) {
			t.Errorf("got %v, want not-found", err)
		}
	})

	t.Run("only holder may request", func(t *testing.T) {
		_ = bank.Deposit("buyer", types.Wei(1000))
		if _, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000)); err != nil {
			t.Fatal(err)
		}
		_, err := m.RefundProduct(ctx, pid, "mallory")
		if !marketplace.IsValidation(err) {
			t.Errorf("got %v, want validation error", err)
		}
		p, _ := m.Product(ctx, pid)
		if p.Owner != "buyer" || !p.Purchased {
			t.Errorf("product state changed by rejected refund: %+v", p)
		}
	})
}

func TestDonateEvenSplit(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("donor", types.Wei(900))

	rec, err := m.Donate(ctx, "donor", types.Wei(900))
	if err != nil {
		t.Fatalf("Donate failed: %v", err)
	}

	if len(rec.Shares) != 3 {
		t.Fatalf("shares: got %d, want 3", len(rec.Shares))
	}
	for _, sh := range rec.Shares {
		if !sh.Amount.Equal(types.Wei(300)) {
			t.Errorf("share for %s: got %v, want %v", sh.Beneficiary, sh.Amount, types.Wei(300))
		}
	}
	for _, beneficiary := range testBeneficiaries {
		if got := bank.Balance(beneficiary); !got.Equal(types.Wei(300)) {
			t.Errorf("%s balance: got %v, want %v", beneficiary, got, types.Wei(300))
		}
	}
	if got := bank.Balance("donor"); !got.IsZero() {
		t.Errorf("donor balance: got %v, want zero", got)
	}
}

func TestDonateRemainderToFirstBeneficiary(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("donor", types.Wei(1000))

	rec, err := m.Donate(ctx, "donor", types.Wei(1000))
	if err != nil {
		t.Fatalf("Donate failed: %v", err)
	}

	want := []int64{334, 333, 333}
	total := types.Zero("wei")
	for i, sh := range rec.Shares {
		if sh.Amount.Amount != want[i] {
			t.Errorf("share %d: got %v, want %d", i, sh.Amount, want[i])
		}
		total = total.Add(sh.Amount)
	}
	// The full amount is always distributed.
	if !total.Equal(types.Wei(1000)) {
		t.Errorf("distributed total: got %v, want %v", total, types.Wei(1000))
	}
	if got := bank.Balance("owner1"); !got.Equal(types.Wei(334)) {
		t.Errorf("owner1 balance: got %v, want 334 wei", got)
	}
}

func TestDonateAmountBelowBeneficiaryCount(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("donor", types.Wei(1))

	// 1 wei across 3 beneficiaries: shares are 0, the remainder goes to the
	// first beneficiary, and zero shares move no funds.
	rec, err := m.Donate(ctx, "donor", types.Wei(1))
	if err != nil {
		t.Fatalf("Donate failed: %v", err)
	}

	want := []int64{1, 0, 0}
	for i, sh := range rec.Shares {
		if sh.Amount.Amount != want[i] {
			t.Errorf("share %d: got %v, want %d", i, sh.Amount, want[i])
		}
	}
	if got := bank.Balance("owner1"); !got.Equal(types.Wei(1)) {
		t.Errorf("owner1 balance: got %v, want 1 wei", got)
	}
	if got := bank.Balance("owner2"); !got.IsZero() {
		t.Errorf("owner2 balance: got %v, want zero", got)
	}
	if got := bank.Balance("donor"); !got.IsZero() {
		t.Errorf("donor balance: got %v, want zero", got)
	}
}

func TestDonateRejections(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	t.Run("zero amount", func(t *testing.T) {
		_, err := m.Donate(ctx, "donor", types.Wei(0))
		if !errors.Is(err, marketplace.ErrZeroAmount) {
			t.Errorf("got %v, want ErrZeroAmount", err)
		}
	})

	t.Run("empty donor", func(t *testing.T) {
		_, err := m.Donate(ctx, "", types.Wei(100))
		if !marketplace.IsValidation(err) {
			t.Errorf("got %v, want validation error", err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_ = bank.Deposit("donor", types.Wei(100))
		_, err := m.Donate(ctx, "donor", types.Wei(900))
		if !marketplace.IsTransferError(err) {
			t.Fatalf("got %v, want transfer error", err)
		}
		if got := bank.Balance("donor"); !got.Equal(types.Wei(100)) {
			t.Errorf("donor balance after failed donation: got %v", got)
		}
		records, _ := m.Donations(ctx, donation.ListOpts{})
		if len(records) != 0 {
			t.Errorf("donation records after failed donation: got %d, want 0", len(records))
		}
	})
}

func TestDonationLogQuery(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("alice", types.Wei(600))
	_ = bank.Deposit("bob", types.Wei(300))

	if _, err := m.Donate(ctx, "alice", types.Wei(300)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Donate(ctx, "bob", types.Wei(300)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Donate(ctx, "alice", types.Wei(300)); err != nil {
		t.Fatal(err)
	}

	fromAlice, err := m.Donations(ctx, donation.ListOpts{Donor: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fromAlice) != 2 {
		t.Errorf("alice donations: got %d, want 2", len(fromAlice))
	}
}

func TestServiceCatalog(t *testing.T) {
	m, bank := newTestMarketplace(t,
		marketplace.WithServiceOfferings(service.Defaults()...),
	)
	ctx := context.Background()

	typs, err := m.ServiceTypes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defaults := service.Defaults()
	if len(typs) != len(defaults) {
		t.Fatalf("service types: got %d, want %d", len(typs), len(defaults))
	}
	for i := range defaults {
		if typs[i] != defaults[i].Type {
			t.Errorf("service type %d: got %q, want %q", i, typs[i], defaults[i].Type)
		}
	}

	price, err := m.ServicePrice(ctx, "Repair")
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(types.Wei(100000000000000000)) {
		t.Errorf("Repair price: got %v", price)
	}

	_, err = m.ServicePrice(ctx, "Teleportation")
	if !errors.Is(err, marketplace.ErrUnknownServiceType) {
		t.Errorf("unknown service: got %v, want ErrUnknownServiceType", err)
	}

	// Re-register to change the price.
	if err := m.RegisterService(ctx, "Repair", types.Wei(42)); err != nil {
		t.Fatal(err)
	}
	price, _ = m.ServicePrice(ctx, "Repair")
	if !price.Equal(types.Wei(42)) {
		t.Errorf("re-priced Repair: got %v, want 42 wei", price)
	}

	t.Run("purchase pays the service owner", func(t *testing.T) {
		_ = bank.Deposit("buyer", types.Wei(100))

		evt, err := m.PurchaseService(ctx, "Repair", "buyer", types.Wei(42))
		if err != nil {
			t.Fatalf("PurchaseService failed: %v", err)
		}
		if evt.Kind != event.KindServicePurchased || evt.ServiceType != "Repair" || evt.Buyer != "buyer" {
			t.Errorf("service event: %+v", evt)
		}

		// Payment goes straight to the first beneficiary by default.
		if got := bank.Balance("owner1"); !got.Equal(types.Wei(42)) {
			t.Errorf("owner1 balance: got %v, want 42 wei", got)
		}
		if got := bank.Balance("buyer"); !got.Equal(types.Wei(58)) {
			t.Errorf("buyer balance: got %v, want 58 wei", got)
		}
	})

	t.Run("exact payment required", func(t *testing.T) {
		_, err := m.PurchaseService(ctx, "Repair", "buyer", types.Wei(41))
		if !errors.Is(err, marketplace.ErrPriceMismatch) {
			t.Errorf("got %v, want ErrPriceMismatch", err)
		}
	})
}

func TestRegisterServiceValidation(t *testing.T) {
	m, _ := newTestMarketplace(t)
	ctx := context.Background()

	if err := m.RegisterService(ctx, "  ", types.Wei(100)); !marketplace.IsValidation(err) {
		t.Errorf("blank type: got %v, want validation error", err)
	}
	if err := m.RegisterService(ctx, "Repair", types.Wei(0)); !errors.Is(err, marketplace.ErrInvalidPrice) {
		t.Errorf("zero price: got %v, want ErrInvalidPrice", err)
	}
}

func TestEventLogSequence(t *testing.T) {
	m, bank := newTestMarketplace(t,
		marketplace.WithServiceOfferings(service.Defaults()...),
	)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "seller")
	_ = bank.Deposit("buyer", types.Wei(2000))

	if _, err := m.PurchaseProduct(ctx, pid, "buyer", types.Wei(1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RefundProduct(ctx, pid, "buyer"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Donate(ctx, "buyer", types.Wei(900)); err != nil {
		t.Fatal(err)
	}

	events, err := m.Events(ctx, event.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}

	wantKinds := []event.Kind{
		event.KindProductCreated,
		event.KindProductPurchased,
		event.KindProductRefunded,
		event.KindDonationReceived,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("events: got %d, want %d", len(events), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if events[i].Kind != kind {
			t.Errorf("event %d: got %q, want %q", i, events[i].Kind, kind)
		}
		if events[i].ID.IsNil() {
			t.Errorf("event %d has nil id", i)
		}
	}

	// The purchase record carries the post-trade state.
	purchased := events[1]
	if purchased.ProductID != pid || purchased.Owner != "buyer" || !purchased.Purchased {
		t.Errorf("purchase event: %+v", purchased)
	}
	// The refund record carries the reverted state.
	refunded := events[2]
	if refunded.Owner != "seller" || refunded.Purchased {
		t.Errorf("refund event: %+v", refunded)
	}
	// The donation record carries donor and amount.
	donated := events[3]
	if donated.Donor != "buyer" || !donated.Amount.Equal(types.Wei(900)) {
		t.Errorf("donation event: %+v", donated)
	}
}

func TestOwnedItemsAcquisitionOrder(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	first := mustCreate(t, m, "first", types.Wei(100), "seller")
	second := mustCreate(t, m, "second", types.Wei(100), "seller")
	third := mustCreate(t, m, "third", types.Wei(100), "collector")

	_ = bank.Deposit("collector", types.Wei(200))
	if _, err := m.PurchaseProduct(ctx, second, "collector", types.Wei(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PurchaseProduct(ctx, first, "collector", types.Wei(100)); err != nil {
		t.Fatal(err)
	}

	owned, err := m.OwnedItems(ctx, "collector")
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{third, second, first}
	if len(owned) != len(want) {
		t.Fatalf("owned: got %v, want %v", owned, want)
	}
	for i := range want {
		if owned[i] != want[i] {
			t.Errorf("owned order: got %v, want %v", owned, want)
		}
	}
}

func TestMarketplaceName(t *testing.T) {
	m, _ := newTestMarketplace(t)
	if m.Name() != marketplace.DefaultName {
		t.Errorf("default name: got %q, want %q", m.Name(), marketplace.DefaultName)
	}

	named, _ := newTestMarketplace(t, marketplace.WithName("Test Bazaar"))
	if named.Name() != "Test Bazaar" {
		t.Errorf("custom name: got %q", named.Name())
	}
}

// faultStore wraps a working store and fails selected writes, for exercising
// the compensation path after the fund-transfer leg has committed.
type faultStore struct {
	store.Store

	failTransfer       bool
	failAppendDonation bool
	failAppendEvent    bool
}

var errWriteFault = errors.New("write failed")

func (s *faultStore) TransferProduct(ctx context.Context, id uint64, t product.Transfer) error {
	if s.failTransfer {
		return errWriteFault
	}
	return s.Store.TransferProduct(ctx, id, t)
}

func (s *faultStore) AppendDonation(ctx context.Context, rec *donation.Record) error {
	if s.failAppendDonation {
		return errWriteFault
	}
	return s.Store.AppendDonation(ctx, rec)
}

func (s *faultStore) AppendEvent(ctx context.Context, rec *event.Record) error {
	if s.failAppendEvent {
		return errWriteFault
	}
	return s.Store.AppendEvent(ctx, rec)
}

func newFaultMarketplace(t *testing.T) (*marketplace.Marketplace, *faultStore, *funds.Bank) {
	t.Helper()

	fs := &faultStore{Store: memory.New()}
	bank := funds.NewBank("wei")
	m := marketplace.New(fs, bank, marketplace.WithBeneficiaries(testBeneficiaries...))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop() })

	return m, fs, bank
}

func TestPurchaseProductStoreFailureReversesFunds(t *testing.T) {
	tests := []struct {
		name  string
		fault func(*faultStore)
	}{
		{"ownership write fails", func(s *faultStore) { s.failTransfer = true }},
		{"event append fails", func(s *faultStore) { s.failAppendEvent = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fs, bank := newFaultMarketplace(t)
			ctx := context.Background()

			pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "alice")
			_ = bank.Deposit("bob", types.Wei(1000))

			tt.fault(fs)
			if _, err := m.PurchaseProduct(ctx, pid, "bob", types.Wei(1000)); !errors.Is(err, errWriteFault) {
				t.Fatalf("got %v, want write fault", err)
			}

			if got := bank.Balance("bob"); !got.Equal(types.Wei(1000)) {
				t.Errorf("buyer balance: got %v, want 1000 wei", got)
			}
			if got := bank.Balance("alice"); !got.IsZero() {
				t.Errorf("seller balance: got %v, want zero", got)
			}

			p, err := m.Product(ctx, pid)
			if err != nil {
				t.Fatal(err)
			}
			if p.Owner != "alice" || p.Purchased {
				t.Errorf("product state after failed purchase: %+v", p)
			}
			owned, err := m.OwnedItems(ctx, "bob")
			if err != nil {
				t.Fatal(err)
			}
			if len(owned) != 0 {
				t.Errorf("buyer owned items: got %v, want none", owned)
			}
		})
	}
}

func TestRefundProductStoreFailureReversesFunds(t *testing.T) {
	m, fs, bank := newFaultMarketplace(t)
	ctx := context.Background()

	pid := mustCreate(t, m, "iPhone X", types.Wei(1000), "alice")
	_ = bank.Deposit("bob", types.Wei(1000))
	if _, err := m.PurchaseProduct(ctx, pid, "bob", types.Wei(1000)); err != nil {
		t.Fatalf("PurchaseProduct failed: %v", err)
	}

	fs.failTransfer = true
	if _, err := m.RefundProduct(ctx, pid, "bob"); !errors.Is(err, errWriteFault) {
		t.Fatalf("got %v, want write fault", err)
	}

	if got := bank.Balance("alice"); !got.Equal(types.Wei(1000)) {
		t.Errorf("seller balance: got %v, want 1000 wei", got)
	}
	if got := bank.Balance("bob"); !got.IsZero() {
		t.Errorf("holder balance: got %v, want zero", got)
	}

	p, err := m.Product(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if p.Owner != "bob" || !p.Purchased || p.Seller != "alice" {
		t.Errorf("product state after failed refund: %+v", p)
	}
}

func TestDonateStoreFailureReversesFunds(t *testing.T) {
	m, fs, bank := newFaultMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("donor", types.Wei(900))

	fs.failAppendDonation = true
	if _, err := m.Donate(ctx, "donor", types.Wei(900)); !errors.Is(err, errWriteFault) {
		t.Fatalf("got %v, want write fault", err)
	}

	if got := bank.Balance("donor"); !got.Equal(types.Wei(900)) {
		t.Errorf("donor balance: got %v, want 900 wei", got)
	}
	for _, b := range testBeneficiaries {
		if got := bank.Balance(b); !got.IsZero() {
			t.Errorf("%s balance: got %v, want zero", b, got)
		}
	}
	recs, err := m.Donations(ctx, donation.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("donation records after failed donation: got %d, want 0", len(recs))
	}
}

func TestPurchaseServiceStoreFailureReversesFunds(t *testing.T) {
	m, fs, bank := newFaultMarketplace(t)
	ctx := context.Background()

	if err := m.RegisterService(ctx, "Repair", types.Wei(100)); err != nil {
		t.Fatalf("RegisterService failed: %v", err)
	}
	_ = bank.Deposit("bob", types.Wei(100))

	fs.failAppendEvent = true
	if _, err := m.PurchaseService(ctx, "Repair", "bob", types.Wei(100)); !errors.Is(err, errWriteFault) {
		t.Fatalf("got %v, want write fault", err)
	}

	if got := bank.Balance("bob"); !got.Equal(types.Wei(100)) {
		t.Errorf("buyer balance: got %v, want 100 wei", got)
	}
	if got := bank.Balance("owner1"); !got.IsZero() {
		t.Errorf("service owner balance: got %v, want zero", got)
	}
}

func TestDonateFromBeneficiary(t *testing.T) {
	m, bank := newTestMarketplace(t)
	ctx := context.Background()

	_ = bank.Deposit("owner1", types.Wei(900))

	// A beneficiary donating keeps their own share; only the other legs move.
	rec, err := m.Donate(ctx, "owner1", types.Wei(900))
	if err != nil {
		t.Fatalf("Donate failed: %v", err)
	}

	for _, sh := range rec.Shares {
		if sh.Amount.Amount != 300 {
			t.Errorf("share for %s: got %v, want 300", sh.Beneficiary, sh.Amount)
		}
	}
	for _, b := range testBeneficiaries {
		if got := bank.Balance(b); !got.Equal(types.Wei(300)) {
			t.Errorf("%s balance: got %v, want 300 wei", b, got)
		}
	}
}

func TestDonateSoleBeneficiaryDonor(t *testing.T) {
	m, bank := newTestMarketplace(t, marketplace.WithBeneficiaries("owner1"))
	ctx := context.Background()

	_ = bank.Deposit("owner1", types.Wei(100))

	// No fund legs at all, but the donation is still recorded.
	rec, err := m.Donate(ctx, "owner1", types.Wei(100))
	if err != nil {
		t.Fatalf("Donate failed: %v", err)
	}
	if len(rec.Shares) != 1 || rec.Shares[0].Amount.Amount != 100 {
		t.Errorf("shares: %+v", rec.Shares)
	}
	if got := bank.Balance("owner1"); !got.Equal(types.Wei(100)) {
		t.Errorf("owner1 balance: got %v, want 100 wei", got)
	}

	recs, err := m.Donations(ctx, donation.ListOpts{Donor: "owner1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("donation records: got %d, want 1", len(recs))
	}
}

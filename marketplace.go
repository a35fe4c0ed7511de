package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/funds"
	"github.com/xraph/marketplace/id"
	"github.com/xraph/marketplace/plugin"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	"github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/types"
)

// DefaultName is the marketplace display name when none is configured.
const DefaultName = "Dapp University Marketplace"

// Marketplace is the transactional ledger engine: a product/ownership
// ledger with escrowed payments, a donation treasury and a secondary
// service catalog.
//
// Every mutating call executes as a single atomic transaction. The engine
// serializes mutations internally; the fund-transfer leg runs after
// validation and before any state change, so a failed transfer leaves the
// ledger untouched.
type Marketplace struct {
	store   store.Store
	funds   funds.Transferor
	plugins *plugin.Registry
	logger  *slog.Logger

	// Serializes all mutating calls. Reads go straight to the store.
	writeMu sync.Mutex

	// Configuration
	name            string
	beneficiaries   []types.Account
	serviceOwner    types.Account
	offerings       []service.Offering
	transferTimeout time.Duration
	skipMigrate     bool
}

// New creates a new Marketplace instance over a store and a fund-transfer
// primitive.
func New(s store.Store, t funds.Transferor, opts ...Option) *Marketplace {
	m := &Marketplace{
		store:   s,
		funds:   t,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		name:    DefaultName,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Option configures a Marketplace instance.
type Option func(*Marketplace)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Marketplace) {
		m.logger = logger
		m.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(m *Marketplace) {
		_ = m.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithName sets the marketplace display name.
func WithName(name string) Option {
	return func(m *Marketplace) {
		m.name = name
	}
}

// WithBeneficiaries fixes the donation beneficiary set. The set is
// immutable for the life of the engine; Start fails if it is empty.
func WithBeneficiaries(accounts ...types.Account) Option {
	return func(m *Marketplace) {
		m.beneficiaries = append([]types.Account(nil), accounts...)
	}
}

// WithServiceOwner sets the account that receives service payments.
// Defaults to the first beneficiary.
func WithServiceOwner(account types.Account) Option {
	return func(m *Marketplace) {
		m.serviceOwner = account
	}
}

// WithServiceOfferings seeds the service catalog at Start.
func WithServiceOfferings(offerings ...service.Offering) Option {
	return func(m *Marketplace) {
		m.offerings = append(m.offerings, offerings...)
	}
}

// WithoutMigrate skips store migration during Start. Use when the host
// application runs migrations out of band.
func WithoutMigrate() Option {
	return func(m *Marketplace) {
		m.skipMigrate = true
	}
}

// WithTransferTimeout bounds the fund-transfer leg of every mutating call.
// A transfer that exceeds the timeout fails the whole call; the ledger is
// left unchanged, never in a "possibly succeeded" state.
func WithTransferTimeout(d time.Duration) Option {
	return func(m *Marketplace) {
		m.transferTimeout = d
	}
}

// Start validates configuration, migrates the store and seeds the service
// catalog.
func (m *Marketplace) Start(ctx context.Context) error {
	if len(m.beneficiaries) == 0 {
		return ErrNoBeneficiaries
	}
	if m.serviceOwner.IsZero() {
		m.serviceOwner = m.beneficiaries[0]
	}

	if !m.skipMigrate {
		if err := m.store.Migrate(ctx); err != nil {
			return err
		}
	}

	for i := range m.offerings {
		off := m.offerings[i]
		off.Entity = types.NewEntity()
		if err := m.store.PutService(ctx, &off); err != nil {
			return fmt.Errorf("marketplace: seed service %q: %w", off.Type, err)
		}
	}

	m.plugins.EmitInit(ctx, m)

	m.logger.Info("marketplace started",
		"name", m.name,
		"beneficiaries", len(m.beneficiaries),
		"seeded_services", len(m.offerings),
	)

	return nil
}

// Stop shuts down the Marketplace. It waits for any in-flight mutation
// before closing the store, so a mutation never races a closing store.
func (m *Marketplace) Stop() error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	ctx := context.Background()
	m.plugins.EmitShutdown(ctx)

	return m.store.Close()
}

// Name returns the marketplace display name.
func (m *Marketplace) Name() string { return m.name }

// Beneficiaries returns the fixed donation beneficiary set.
func (m *Marketplace) Beneficiaries() []types.Account {
	result := make([]types.Account, len(m.beneficiaries))
	copy(result, m.beneficiaries)
	return result
}

// Receipt is the synchronous result of a trade operation. It carries the
// same field set as the appended event log record.
type Receipt struct {
	ID        id.ReceiptID     `json:"id"`
	ProductID uint64           `json:"product_id"`
	Name      string           `json:"name"`
	Price     types.Money      `json:"price"`
	Owner     types.Account    `json:"owner"`
	Purchased bool             `json:"purchased"`
	Category  product.Category `json:"category"`
	Timestamp time.Time        `json:"timestamp"`
}

// ──────────────────────────────────────────────────
// Catalog Engine
// ──────────────────────────────────────────────────

// CreateProduct validates and stores a new product owned by creator.
// The next sequential id is assigned, the creator's ownership index is
// updated and a product-created event is appended. No funds move.
func (m *Marketplace) CreateProduct(ctx context.Context, name string, price types.Money, category product.Category, creator types.Account) (uint64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, ErrInvalidName
	}
	if !price.IsPositive() {
		return 0, ErrInvalidPrice
	}
	if !category.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if creator.IsZero() {
		return 0, ValidationError{Field: "creator", Message: "must not be empty"}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	p := &product.Product{
		Entity:   types.NewEntity(),
		Name:     name,
		Price:    price,
		Category: category,
		Owner:    creator,
	}

	productID, err := m.store.CreateProduct(ctx, p)
	if err != nil {
		return 0, err
	}

	if err := m.appendProductEvent(ctx, event.KindProductCreated, p); err != nil {
		return 0, err
	}

	m.plugins.EmitProductCreated(ctx, p)

	m.logger.Debug("product created",
		"id", productID,
		"name", name,
		"price", price.String(),
		"category", string(category),
		"owner", creator.String(),
	)

	return productID, nil
}

// Product retrieves a product by id.
func (m *Marketplace) Product(ctx context.Context, productID uint64) (*product.Product, error) {
	return m.store.GetProduct(ctx, productID)
}

// ProductCount returns the number of products ever created.
func (m *Marketplace) ProductCount(ctx context.Context) (uint64, error) {
	return m.store.ProductCount(ctx)
}

// OwnedItems returns the ordered product ids currently owned by account.
func (m *Marketplace) OwnedItems(ctx context.Context, account types.Account) ([]uint64, error) {
	return m.store.OwnedItems(ctx, account)
}

// ──────────────────────────────────────────────────
// Trade Engine
// ──────────────────────────────────────────────────

// PurchaseProduct executes a purchase as one atomic transition: the exact
// price moves from buyer to the current owner, ownership and the purchased
// flag flip, both ownership indices update and a purchase event is
// appended. If the transfer leg fails, no state change is observed.
func (m *Marketplace) PurchaseProduct(ctx context.Context, productID uint64, buyer types.Account, paid types.Money) (*Receipt, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	p, err := m.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Purchased {
		return nil, ErrAlreadyPurchased
	}
	if !paid.Equal(p.Price) {
		return nil, fmt.Errorf("%w: paid %s, price %s", ErrPriceMismatch, paid, p.Price)
	}
	if buyer == p.Owner {
		return nil, ErrSelfTrade
	}

	seller := p.Owner
	leg := []funds.Transfer{{From: buyer, To: seller, Amount: p.Price}}
	if err := m.transferBatch(ctx, "purchase", leg); err != nil {
		return nil, err
	}

	t := product.Transfer{From: seller, To: buyer, Purchased: true, Seller: seller}
	if err := m.store.TransferProduct(ctx, productID, t); err != nil {
		m.reverse("purchase", leg)
		return nil, err
	}

	p.Owner = buyer
	p.Purchased = true
	p.Seller = seller

	if err := m.appendProductEvent(ctx, event.KindProductPurchased, p); err != nil {
		m.undoTransferProduct(productID, product.Transfer{From: buyer, To: seller, Purchased: false})
		m.reverse("purchase", leg)
		return nil, err
	}

	receipt := m.receipt(p)
	m.plugins.EmitProductPurchased(ctx, receipt)

	m.logger.Info("product purchased",
		"id", productID,
		"buyer", buyer.String(),
		"seller", seller.String(),
		"price", p.Price.String(),
	)

	return receipt, nil
}

// RefundProduct reverses a purchase. The seller recorded at purchase time
// returns the exact price to the current holder, ownership reverts to that
// seller, the purchased flag clears and both ownership indices update
// symmetrically to PurchaseProduct.
//
// Refund policy: only the current holder may request the refund; the
// counterparty is always the recorded seller, never a generic pool.
func (m *Marketplace) RefundProduct(ctx context.Context, productID uint64, requester types.Account) (*Receipt, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	p, err := m.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Purchased {
		return nil, ErrNotPurchased
	}
	if requester != p.Owner {
		return nil, ValidationError{Field: "requester", Message: "only the current holder can request a refund"}
	}

	holder := p.Owner
	seller := p.Seller
	leg := []funds.Transfer{{From: seller, To: holder, Amount: p.Price}}
	if err := m.transferBatch(ctx, "refund", leg); err != nil {
		return nil, err
	}

	t := product.Transfer{From: holder, To: seller, Purchased: false}
	if err := m.store.TransferProduct(ctx, productID, t); err != nil {
		m.reverse("refund", leg)
		return nil, err
	}

	p.Owner = seller
	p.Purchased = false
	p.Seller = ""

	if err := m.appendProductEvent(ctx, event.KindProductRefunded, p); err != nil {
		m.undoTransferProduct(productID, product.Transfer{From: seller, To: holder, Purchased: true, Seller: seller})
		m.reverse("refund", leg)
		return nil, err
	}

	receipt := m.receipt(p)
	m.plugins.EmitProductRefunded(ctx, receipt)

	m.logger.Info("product refunded",
		"id", productID,
		"holder", holder.String(),
		"seller", seller.String(),
		"price", p.Price.String(),
	)

	return receipt, nil
}

// ──────────────────────────────────────────────────
// Treasury / Donation Engine
// ──────────────────────────────────────────────────

// Donate splits amount evenly across the beneficiary set using integer
// division and credits every share in one atomic batch.
//
// Remainder policy: the remainder of a non-exact division goes to the
// first beneficiary, so the full amount is always distributed. A donor who
// is also a beneficiary keeps their own share; that leg is skipped like a
// zero share instead of transferring to self.
func (m *Marketplace) Donate(ctx context.Context, donor types.Account, amount types.Money) (*donation.Record, error) {
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}
	if donor.IsZero() {
		return nil, ValidationError{Field: "donor", Message: "must not be empty"}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	share, remainder := amount.SplitEven(int64(len(m.beneficiaries)))

	shares := make([]donation.Share, 0, len(m.beneficiaries))
	transfers := make([]funds.Transfer, 0, len(m.beneficiaries))
	for i, beneficiary := range m.beneficiaries {
		credit := share
		if i == 0 {
			credit = credit.Add(remainder)
		}
		shares = append(shares, donation.Share{Beneficiary: beneficiary, Amount: credit})
		if credit.IsPositive() && beneficiary != donor {
			transfers = append(transfers, funds.Transfer{From: donor, To: beneficiary, Amount: credit})
		}
	}

	if len(transfers) > 0 {
		if err := m.transferBatch(ctx, "donate", transfers); err != nil {
			return nil, err
		}
	}

	rec := &donation.Record{
		Entity:    types.NewEntity(),
		ID:        id.NewDonationID(),
		Donor:     donor,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
		Shares:    shares,
	}

	if err := m.store.AppendDonation(ctx, rec); err != nil {
		m.reverse("donate", transfers)
		return nil, err
	}

	evt := &event.Record{
		ID:        id.NewEventID(),
		Kind:      event.KindDonationReceived,
		Timestamp: rec.Timestamp,
		Donor:     donor,
		Amount:    amount,
	}
	if err := m.store.AppendEvent(ctx, evt); err != nil {
		m.reverse("donate", transfers)
		m.logger.Error("donation recorded but event append failed",
			"donation_id", rec.ID.String(),
			"error", err,
		)
		return nil, err
	}

	m.plugins.EmitDonationReceived(ctx, rec)

	m.logger.Info("donation received",
		"donor", donor.String(),
		"amount", amount.String(),
		"beneficiaries", len(m.beneficiaries),
	)

	return rec, nil
}

// Donations queries the append-only donation audit log.
func (m *Marketplace) Donations(ctx context.Context, opts donation.ListOpts) ([]*donation.Record, error) {
	return m.store.ListDonations(ctx, opts)
}

// ──────────────────────────────────────────────────
// Service Catalog
// ──────────────────────────────────────────────────

// RegisterService registers (or re-prices) a purchasable service type.
func (m *Marketplace) RegisterService(ctx context.Context, typ string, price types.Money) error {
	if strings.TrimSpace(typ) == "" {
		return ValidationError{Field: "type", Message: "must not be empty"}
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	off := &service.Offering{
		Entity: types.NewEntity(),
		Type:   typ,
		Price:  price,
	}
	if err := m.store.PutService(ctx, off); err != nil {
		return err
	}

	m.logger.Debug("service registered", "type", typ, "price", price.String())
	return nil
}

// ServiceTypes returns all registered service types.
func (m *Marketplace) ServiceTypes(ctx context.Context) ([]string, error) {
	return m.store.ListServiceTypes(ctx)
}

// ServicePrice returns the price of a service type.
func (m *Marketplace) ServicePrice(ctx context.Context, typ string) (types.Money, error) {
	off, err := m.store.GetService(ctx, typ)
	if err != nil {
		return types.Money{}, err
	}
	return off.Price, nil
}

// PurchaseService pays the service owner directly. No ownership record is
// created or mutated; the appended event is the only ledger trace.
func (m *Marketplace) PurchaseService(ctx context.Context, typ string, buyer types.Account, paid types.Money) (*event.Record, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	off, err := m.store.GetService(ctx, typ)
	if err != nil {
		return nil, err
	}
	if !paid.Equal(off.Price) {
		return nil, fmt.Errorf("%w: paid %s, price %s", ErrPriceMismatch, paid, off.Price)
	}

	leg := []funds.Transfer{{From: buyer, To: m.serviceOwner, Amount: off.Price}}
	if err := m.transferBatch(ctx, "service", leg); err != nil {
		return nil, err
	}

	evt := &event.Record{
		ID:          id.NewEventID(),
		Kind:        event.KindServicePurchased,
		Timestamp:   time.Now().UTC(),
		ServiceType: typ,
		Buyer:       buyer,
		Amount:      off.Price,
	}
	if err := m.store.AppendEvent(ctx, evt); err != nil {
		m.reverse("service", leg)
		return nil, err
	}

	m.plugins.EmitServicePurchased(ctx, evt)

	m.logger.Info("service purchased",
		"type", typ,
		"buyer", buyer.String(),
		"price", off.Price.String(),
	)

	return evt, nil
}

// ──────────────────────────────────────────────────
// Event Log
// ──────────────────────────────────────────────────

// Events queries the append-only event log.
func (m *Marketplace) Events(ctx context.Context, opts event.ListOpts) ([]*event.Record, error) {
	return m.store.ListEvents(ctx, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// transferBatch runs the fund-transfer leg under the configured timeout and
// maps any failure to ErrTransferFailed.
func (m *Marketplace) transferBatch(ctx context.Context, op string, transfers []funds.Transfer) error {
	if m.transferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.transferTimeout)
		defer cancel()
	}

	if err := m.funds.TransferBatch(ctx, transfers); err != nil {
		m.plugins.EmitTransferFailed(ctx, op, err)
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// reverse issues the compensating transfer for a committed fund leg after a
// later store write in the same call failed, keeping the failed call free of
// observable fund movement. It runs on a fresh context so a cancelled caller
// context cannot strand the funds; a reversal failure means funds and ledger
// have diverged and is logged and reported to plugins.
func (m *Marketplace) reverse(op string, transfers []funds.Transfer) {
	if len(transfers) == 0 {
		return
	}

	ctx := context.Background()
	reversed := make([]funds.Transfer, len(transfers))
	for i, t := range transfers {
		reversed[len(transfers)-1-i] = funds.Transfer{From: t.To, To: t.From, Amount: t.Amount}
	}

	if err := m.funds.TransferBatch(ctx, reversed); err != nil {
		m.plugins.EmitTransferFailed(ctx, op+".reverse", err)
		m.logger.Error("compensating transfer failed, funds and ledger diverged",
			"op", op,
			"error", err,
		)
	}
}

// undoTransferProduct rolls an ownership flip back after a following event
// append failed. Best effort on a fresh context; a failure is logged.
func (m *Marketplace) undoTransferProduct(productID uint64, t product.Transfer) {
	if err := m.store.TransferProduct(context.Background(), productID, t); err != nil {
		m.logger.Error("ownership rollback failed, ledger diverged",
			"id", productID,
			"error", err,
		)
	}
}

func (m *Marketplace) appendProductEvent(ctx context.Context, kind event.Kind, p *product.Product) error {
	return m.store.AppendEvent(ctx, &event.Record{
		ID:        id.NewEventID(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Owner:     p.Owner,
		Purchased: p.Purchased,
		Category:  p.Category,
	})
}

func (m *Marketplace) receipt(p *product.Product) *Receipt {
	return &Receipt{
		ID:        id.NewReceiptID(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Owner:     p.Owner,
		Purchased: p.Purchased,
		Category:  p.Category,
		Timestamp: time.Now().UTC(),
	}
}

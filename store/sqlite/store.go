// Package sqlite provides the SQLite store driver backed by database/sql
// and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/id"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	marketstore "github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/types"
)

// compile-time interface check
var _ marketstore.Store = (*Store)(nil)

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store on an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens a SQLite database at the given DSN and returns a store on it.
// SQLite handles one writer at a time, so the pool is capped at a single
// connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("marketplace/sqlite: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("marketplace/sqlite: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) (uint64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO marketplace_products
    (name, price_amount, price_currency, category, owner, purchased, seller, acquired_seq, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?,
    (SELECT IFNULL(MAX(acquired_seq), 0) + 1 FROM marketplace_products),
    ?, ?)`,
		p.Name, p.Price.Amount, p.Price.Currency, string(p.Category),
		string(p.Owner), boolToInt(p.Purchased), string(p.Seller),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = uint64(lastID)
	return p.ID, nil
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*product.Product, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, price_amount, price_currency, category, owner, purchased, seller, created_at, updated_at
FROM marketplace_products WHERE id = ?`, productID)
	return scanProduct(row)
}

func (s *Store) ProductCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM marketplace_products`).Scan(&count)
	return count, err
}

func (s *Store) OwnedItems(ctx context.Context, owner types.Account) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM marketplace_products WHERE owner = ? ORDER BY acquired_seq ASC`,
		string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var pid uint64
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		ids = append(ids, pid)
	}
	return ids, rows.Err()
}

func (s *Store) TransferProduct(ctx context.Context, productID uint64, t product.Transfer) error {
	// acquired_seq is bumped so the new owner sees the product last in
	// acquisition order. The single UPDATE keeps the transition atomic.
	res, err := s.db.ExecContext(ctx, `
UPDATE marketplace_products
SET owner = ?, purchased = ?, seller = ?,
    acquired_seq = (SELECT IFNULL(MAX(acquired_seq), 0) + 1 FROM marketplace_products),
    updated_at = ?
WHERE id = ?`,
		string(t.To), boolToInt(t.Purchased), string(t.Seller),
		formatTime(time.Now().UTC()), productID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return marketplace.ErrNotFound
	}
	return nil
}

// ==================== Donation Store ====================

func (s *Store) AppendDonation(ctx context.Context, rec *donation.Record) error {
	shares, err := json.Marshal(rec.Shares)
	if err != nil {
		return fmt.Errorf("marketplace/sqlite: marshal donation shares: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO marketplace_donations
    (id, donor, amount, amount_currency, donated_at, shares, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), string(rec.Donor), rec.Amount.Amount, rec.Amount.Currency,
		formatTime(rec.Timestamp), string(shares), formatTime(now), formatTime(now),
	)
	return err
}

func (s *Store) ListDonations(ctx context.Context, opts donation.ListOpts) ([]*donation.Record, error) {
	query := `
SELECT id, donor, amount, amount_currency, donated_at, shares, created_at, updated_at
FROM marketplace_donations`
	args := make([]any, 0, 3)
	if !opts.Donor.IsZero() {
		query += ` WHERE donor = ?`
		args = append(args, string(opts.Donor))
	}
	query += ` ORDER BY rowid ASC`
	query, args = applyWindow(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*donation.Record, 0)
	for rows.Next() {
		rec, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ==================== Service Store ====================

func (s *Store) PutService(ctx context.Context, off *service.Offering) error {
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO marketplace_services (type, price_amount, price_currency, seq, created_at, updated_at)
VALUES (?, ?, ?, (SELECT IFNULL(MAX(seq), 0) + 1 FROM marketplace_services), ?, ?)
ON CONFLICT (type) DO UPDATE SET
    price_amount = excluded.price_amount,
    price_currency = excluded.price_currency,
    updated_at = excluded.updated_at`,
		off.Type, off.Price.Amount, off.Price.Currency, now, now,
	)
	return err
}

func (s *Store) GetService(ctx context.Context, typ string) (*service.Offering, error) {
	var off service.Offering
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
SELECT type, price_amount, price_currency, created_at, updated_at
FROM marketplace_services WHERE type = ?`, typ).
		Scan(&off.Type, &off.Price.Amount, &off.Price.Currency, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, marketplace.ErrUnknownServiceType
		}
		return nil, err
	}
	off.CreatedAt = parseTime(createdAt)
	off.UpdatedAt = parseTime(updatedAt)
	return &off, nil
}

func (s *Store) ListServiceTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type FROM marketplace_services ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var typ string
		if err := rows.Scan(&typ); err != nil {
			return nil, err
		}
		result = append(result, typ)
	}
	return result, rows.Err()
}

// ==================== Event Store ====================

func (s *Store) AppendEvent(ctx context.Context, rec *event.Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO marketplace_events
    (id, kind, occurred_at, product_id, name, price_amount, price_currency,
     owner, purchased, category, donor, amount, amount_currency, service_type, buyer, seq)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
    (SELECT IFNULL(MAX(seq), 0) + 1 FROM marketplace_events))`,
		rec.ID.String(), string(rec.Kind), formatTime(rec.Timestamp),
		rec.ProductID, rec.Name, rec.Price.Amount, rec.Price.Currency,
		string(rec.Owner), boolToInt(rec.Purchased), string(rec.Category),
		string(rec.Donor), rec.Amount.Amount, rec.Amount.Currency,
		rec.ServiceType, string(rec.Buyer),
	)
	return err
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error) {
	query := `
SELECT id, kind, occurred_at, product_id, name, price_amount, price_currency,
       owner, purchased, category, donor, amount, amount_currency, service_type, buyer
FROM marketplace_events`
	args := make([]any, 0, 3)
	if opts.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY seq ASC`
	query, args = applyWindow(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*event.Record, 0)
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ==================== Row Scanning ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*product.Product, error) {
	var p product.Product
	var purchased int
	var category, owner, seller, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Price.Amount, &p.Price.Currency,
		&category, &owner, &purchased, &seller, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, marketplace.ErrNotFound
		}
		return nil, err
	}
	p.Category = product.Category(category)
	p.Owner = types.Account(owner)
	p.Purchased = purchased != 0
	p.Seller = types.Account(seller)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanDonation(row rowScanner) (*donation.Record, error) {
	var rec donation.Record
	var rawID, donor, donatedAt, shares, createdAt, updatedAt string
	err := row.Scan(&rawID, &donor, &rec.Amount.Amount, &rec.Amount.Currency,
		&donatedAt, &shares, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	rec.ID, err = id.ParseDonationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("marketplace/sqlite: corrupt donation id %q: %w", rawID, err)
	}
	if err := json.Unmarshal([]byte(shares), &rec.Shares); err != nil {
		return nil, fmt.Errorf("marketplace/sqlite: corrupt donation shares: %w", err)
	}
	rec.Donor = types.Account(donor)
	rec.Timestamp = parseTime(donatedAt)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func scanEvent(row rowScanner) (*event.Record, error) {
	var rec event.Record
	var rawID, kind, occurredAt, owner, category, donor, buyer string
	var purchased int
	err := row.Scan(&rawID, &kind, &occurredAt, &rec.ProductID, &rec.Name,
		&rec.Price.Amount, &rec.Price.Currency, &owner, &purchased, &category,
		&donor, &rec.Amount.Amount, &rec.Amount.Currency, &rec.ServiceType, &buyer)
	if err != nil {
		return nil, err
	}
	rec.ID, err = id.ParseEventID(rawID)
	if err != nil {
		return nil, fmt.Errorf("marketplace/sqlite: corrupt event id %q: %w", rawID, err)
	}
	rec.Kind = event.Kind(kind)
	rec.Timestamp = parseTime(occurredAt)
	rec.Owner = types.Account(owner)
	rec.Purchased = purchased != 0
	rec.Category = product.Category(category)
	rec.Donor = types.Account(donor)
	rec.Buyer = types.Account(buyer)
	return &rec, nil
}

// ==================== Helpers ====================

func applyWindow(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	} else if offset > 0 {
		// SQLite requires LIMIT when OFFSET is present.
		query += ` LIMIT -1`
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Fallback for sqlite's datetime('now') defaults.
		t, _ = time.Parse("2006-01-02 15:04:05", s)
	}
	return t.UTC()
}

// Package memory provides the in-memory reference store driver.
// All state lives in mutex-guarded maps; every method is atomic under a
// single lock, and reads hand out copies so callers can never mutate
// ledger state behind the store's back.
package memory

import (
	"context"
	"sync"
	"time"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	marketstore "github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/types"
)

// compile-time interface check
var _ marketstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Product storage
	products  map[uint64]product.Product
	productID uint64

	// Ownership index: account -> owned product ids in acquisition order.
	// Derived data; always mutated in the same step as the owning product.
	owned map[types.Account][]uint64

	// Donation audit log (append-only)
	donations []donation.Record

	// Service catalog
	services     map[string]service.Offering
	serviceOrder []string

	// Event log (append-only)
	events []event.Record

	closed bool
}

func New() *Store {
	return &Store{
		products: make(map[uint64]product.Product),
		owned:    make(map[types.Account][]uint64),
		services: make(map[string]service.Offering),
	}
}

// Product store implementation

func (s *Store) CreateProduct(_ context.Context, p *product.Product) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, marketplace.ErrStoreClosed
	}

	s.productID++
	p.ID = s.productID
	s.products[p.ID] = *p
	s.owned[p.Owner] = append(s.owned[p.Owner], p.ID)
	return p.ID, nil
}

func (s *Store) GetProduct(_ context.Context, id uint64) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, marketplace.ErrNotFound
}

func (s *Store) ProductCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, marketplace.ErrStoreClosed
	}
	return s.productID, nil
}

func (s *Store) OwnedItems(_ context.Context, owner types.Account) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}

	ids := s.owned[owner]
	result := make([]uint64, len(ids))
	copy(result, ids)
	return result, nil
}

func (s *Store) TransferProduct(_ context.Context, id uint64, t product.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return marketplace.ErrStoreClosed
	}

	p, ok := s.products[id]
	if !ok {
		return marketplace.ErrNotFound
	}

	p.Owner = t.To
	p.Purchased = t.Purchased
	p.Seller = t.Seller
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p

	s.owned[t.From] = removeID(s.owned[t.From], id)
	s.owned[t.To] = append(s.owned[t.To], id)
	return nil
}

// Donation store implementation

func (s *Store) AppendDonation(_ context.Context, rec *donation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return marketplace.ErrStoreClosed
	}
	s.donations = append(s.donations, *rec)
	return nil
}

func (s *Store) ListDonations(_ context.Context, opts donation.ListOpts) ([]*donation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}

	result := make([]*donation.Record, 0)
	for i := range s.donations {
		rec := s.donations[i]
		if !opts.Donor.IsZero() && rec.Donor != opts.Donor {
			continue
		}
		result = append(result, &rec)
	}
	return window(result, opts.Offset, opts.Limit), nil
}

// Service store implementation

func (s *Store) PutService(_ context.Context, off *service.Offering) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return marketplace.ErrStoreClosed
	}
	if _, exists := s.services[off.Type]; !exists {
		s.serviceOrder = append(s.serviceOrder, off.Type)
	}
	s.services[off.Type] = *off
	return nil
}

func (s *Store) GetService(_ context.Context, typ string) (*service.Offering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}
	if off, ok := s.services[typ]; ok {
		return &off, nil
	}
	return nil, marketplace.ErrUnknownServiceType
}

func (s *Store) ListServiceTypes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}

	result := make([]string, len(s.serviceOrder))
	copy(result, s.serviceOrder)
	return result, nil
}

// Event store implementation

func (s *Store) AppendEvent(_ context.Context, rec *event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return marketplace.ErrStoreClosed
	}
	s.events = append(s.events, *rec)
	return nil
}

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, marketplace.ErrStoreClosed
	}

	result := make([]*event.Record, 0)
	for i := range s.events {
		rec := s.events[i]
		if opts.Kind != "" && rec.Kind != opts.Kind {
			continue
		}
		result = append(result, &rec)
	}
	return window(result, opts.Offset, opts.Limit), nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return marketplace.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Helper functions

func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func window[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

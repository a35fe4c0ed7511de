package store

import (
	"context"

	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	"github.com/xraph/marketplace/types"
)

// Store is the unified storage interface for all Marketplace entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every mutating method must be individually atomic within the driver:
// Transfer in particular changes owner, purchased flag, seller bookmark and
// both ownership indices as one unit. Cross-method atomicity (funds + state)
// is the engine's responsibility.
type Store interface {
	// Product methods
	CreateProduct(ctx context.Context, p *product.Product) (uint64, error)
	GetProduct(ctx context.Context, id uint64) (*product.Product, error)
	ProductCount(ctx context.Context) (uint64, error)
	OwnedItems(ctx context.Context, owner types.Account) ([]uint64, error)
	TransferProduct(ctx context.Context, id uint64, t product.Transfer) error

	// Donation methods
	AppendDonation(ctx context.Context, rec *donation.Record) error
	ListDonations(ctx context.Context, opts donation.ListOpts) ([]*donation.Record, error)

	// Service methods
	PutService(ctx context.Context, off *service.Offering) error
	GetService(ctx context.Context, typ string) (*service.Offering, error)
	ListServiceTypes(ctx context.Context) ([]string, error)

	// Event log methods
	AppendEvent(ctx context.Context, rec *event.Record) error
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

package product

import (
	"context"

	"github.com/xraph/marketplace/types"
)

// Store is the product-catalog fragment of the composite store interface.
type Store interface {
	// Create stores a new product, assigns the next sequential id (starting
	// at 1), inserts the id into the owner's ownership index, and returns
	// the assigned id.
	Create(ctx context.Context, p *Product) (uint64, error)

	// Get returns the product with the given id.
	Get(ctx context.Context, id uint64) (*Product, error)

	// Count returns the number of products ever created. Products are never
	// deleted, so this equals the highest assigned id.
	Count(ctx context.Context) (uint64, error)

	// OwnedBy returns the ordered ids currently owned by the account.
	OwnedBy(ctx context.Context, owner types.Account) ([]uint64, error)

	// Transfer applies an ownership transition: owner, purchased flag and
	// seller bookmark change together with both ownership indices, as one
	// atomic step.
	Transfer(ctx context.Context, id uint64, t Transfer) error
}

package product

import (
	"github.com/xraph/marketplace/types"
)

// Category is the fixed product category enum. Products outside this set
// are rejected at creation time.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategoryHome        Category = "Home"
	CategoryOther       Category = "Other"
)

// Categories returns the full category enum in declaration order.
func Categories() []Category {
	return []Category{
		CategoryElectronics,
		CategoryClothing,
		CategoryBooks,
		CategoryHome,
		CategoryOther,
	}
}

// Valid reports whether the category is one of the fixed enum values.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome, CategoryOther:
		return true
	}
	return false
}

// Product is a single ledger entry in the marketplace catalog.
//
// ID is assigned sequentially by the store, starting at 1, and is immutable.
// Price and Category are immutable after creation. Only Owner, Purchased and
// the Seller bookmark mutate, and only through trade operations.
type Product struct {
	types.Entity
	ID        uint64        `json:"id"`
	Name      string        `json:"name"`
	Price     types.Money   `json:"price"`
	Category  Category      `json:"category"`
	Owner     types.Account `json:"owner"`
	Purchased bool          `json:"purchased"`

	// Seller records the counterparty of the last purchase while the product
	// is in the purchased state. A refund reverts ownership to this account.
	Seller types.Account `json:"seller,omitempty"`
}

// Transfer describes an atomic ownership transition applied by the store:
// the product moves From -> To, Purchased is set, and both ownership
// indices are updated in the same step.
type Transfer struct {
	From      types.Account
	To        types.Account
	Purchased bool
	Seller    types.Account
}

package donation

import (
	"time"

	"github.com/xraph/marketplace/id"
	"github.com/xraph/marketplace/types"
)

// Record is an append-only audit entry for a single donation.
// Records are never mutated or deleted once written.
type Record struct {
	types.Entity
	ID        id.DonationID `json:"id"`
	Donor     types.Account `json:"donor"`
	Amount    types.Money   `json:"amount"`
	Timestamp time.Time     `json:"timestamp"`
	Shares    []Share       `json:"shares"`
}

// Share is one beneficiary's portion of a donation split.
type Share struct {
	Beneficiary types.Account `json:"beneficiary"`
	Amount      types.Money   `json:"amount"`
}

// ListOpts filters donation record queries.
type ListOpts struct {
	Donor  types.Account
	Limit  int
	Offset int
}

// Package funds defines the fund-transfer primitive every mutating
// marketplace call is bound to, plus an in-memory Bank implementation.
//
// The engine never moves state without moving funds: if the transfer leg
// fails, the whole call fails and no ledger state changes. Implementations
// backed by a remote system must make Transfer and TransferBatch behave
// atomically: a returned error means no funds moved.
package funds

import (
	"context"
	"errors"

	"github.com/xraph/marketplace/types"
)

// Sentinel errors for transfer failures.
var (
	ErrInsufficientFunds = errors.New("funds: insufficient funds")
	ErrUnknownAccount    = errors.New("funds: unknown account")
	ErrCurrencyMismatch  = errors.New("funds: currency mismatch")
	ErrInvalidTransfer   = errors.New("funds: invalid transfer")
)

// Transfer is a single debit/credit pair.
type Transfer struct {
	From   types.Account
	To     types.Account
	Amount types.Money
}

// Transferor moves funds between accounts.
type Transferor interface {
	// Transfer moves amount from one account to another. On error no funds
	// have moved.
	Transfer(ctx context.Context, from, to types.Account, amount types.Money) error

	// TransferBatch applies a set of transfers as one atomic unit: either
	// every transfer succeeds or none of them do. Used by donation splits.
	TransferBatch(ctx context.Context, transfers []Transfer) error
}

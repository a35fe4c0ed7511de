package funds

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/marketplace/types"
)

// Bank is an in-memory Transferor holding single-currency balances.
// It is the reference implementation used in tests and demos; production
// hosts inject their own Transferor bound to the platform's value system.
type Bank struct {
	mu       sync.Mutex
	currency string
	balances map[types.Account]int64
}

var _ Transferor = (*Bank)(nil)

// NewBank creates an empty Bank denominated in the given currency.
func NewBank(currency string) *Bank {
	return &Bank{
		currency: strings.ToLower(currency),
		balances: make(map[types.Account]int64),
	}
}

// Deposit credits an account directly. Intended for funding accounts in
// tests and demos, mirroring pre-funded chain accounts.
func (b *Bank) Deposit(account types.Account, amount types.Money) error {
	if err := b.check(account, amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount.Amount
	return nil
}

// Balance returns the current balance of an account. Accounts that never
// received funds report a zero balance.
func (b *Bank) Balance(account types.Account) types.Money {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.Money{Amount: b.balances[account], Currency: b.currency}
}

// Transfer implements Transferor.
func (b *Bank) Transfer(ctx context.Context, from, to types.Account, amount types.Money) error {
	return b.TransferBatch(ctx, []Transfer{{From: from, To: to, Amount: amount}})
}

// TransferBatch implements Transferor. The batch is validated in full
// before any balance changes, so a failed batch leaves every balance
// untouched.
func (b *Bank) TransferBatch(ctx context.Context, transfers []Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(transfers) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidTransfer)
	}

	for _, t := range transfers {
		if err := b.check(t.From, t.Amount); err != nil {
			return err
		}
		if err := b.check(t.To, t.Amount); err != nil {
			return err
		}
		if t.From == t.To {
			return fmt.Errorf("%w: transfer to self", ErrInvalidTransfer)
		}
		if !t.Amount.IsPositive() {
			return fmt.Errorf("%w: non-positive amount %s", ErrInvalidTransfer, t.Amount)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Validate cumulative debits against balances before applying anything.
	debits := make(map[types.Account]int64)
	for _, t := range transfers {
		debits[t.From] += t.Amount.Amount
	}
	for account, debit := range debits {
		if b.balances[account] < debit {
			return fmt.Errorf("%w: account %s needs %d, has %d",
				ErrInsufficientFunds, account, debit, b.balances[account])
		}
	}

	for _, t := range transfers {
		b.balances[t.From] -= t.Amount.Amount
		b.balances[t.To] += t.Amount.Amount
	}
	return nil
}

func (b *Bank) check(account types.Account, amount types.Money) error {
	if account.IsZero() {
		return fmt.Errorf("%w: empty account", ErrUnknownAccount)
	}
	if amount.Currency != b.currency {
		return fmt.Errorf("%w: bank holds %s, got %s", ErrCurrencyMismatch, b.currency, amount.Currency)
	}
	return nil
}

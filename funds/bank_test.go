package funds

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/marketplace/types"
)

func TestBankDepositAndBalance(t *testing.T) {
	b := NewBank("usd")

	if got := b.Balance("alice"); !got.IsZero() {
		t.Errorf("fresh account balance: got %v, want zero", got)
	}

	if err := b.Deposit("alice", types.USD(1000)); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := b.Deposit("alice", types.USD(500)); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	if got := b.Balance("alice"); !got.Equal(types.USD(1500)) {
		t.Errorf("Balance: got %v, want %v", got, types.USD(1500))
	}
}

func TestBankDepositValidation(t *testing.T) {
	b := NewBank("usd")

	if err := b.Deposit("", types.USD(100)); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("empty account: got %v, want ErrUnknownAccount", err)
	}
	if err := b.Deposit("alice", types.EUR(100)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("wrong currency: got %v, want ErrCurrencyMismatch", err)
	}
}

func TestBankTransfer(t *testing.T) {
	b := NewBank("usd")
	ctx := context.Background()

	if err := b.Deposit("alice", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	if err := b.Transfer(ctx, "alice", "bob", types.USD(400)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if got := b.Balance("alice"); !got.Equal(types.USD(600)) {
		t.Errorf("alice balance: got %v, want %v", got, types.USD(600))
	}
	if got := b.Balance("bob"); !got.Equal(types.USD(400)) {
		t.Errorf("bob balance: got %v, want %v", got, types.USD(400))
	}
}

func TestBankTransferRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		setup    func(*Bank)
		transfer Transfer
		sentinel error
	}{
		{
			name:     "insufficient funds",
			setup:    func(b *Bank) { _ = b.Deposit("alice", types.USD(100)) },
			transfer: Transfer{From: "alice", To: "bob", Amount: types.USD(200)},
			sentinel: ErrInsufficientFunds,
		},
		{
			name:     "empty from account",
			transfer: Transfer{From: "", To: "bob", Amount: types.USD(100)},
			sentinel: ErrUnknownAccount,
		},
		{
			name:     "empty to account",
			transfer: Transfer{From: "alice", To: "", Amount: types.USD(100)},
			sentinel: ErrUnknownAccount,
		},
		{
			name:     "currency mismatch",
			transfer: Transfer{From: "alice", To: "bob", Amount: types.EUR(100)},
			sentinel: ErrCurrencyMismatch,
		},
		{
			name:     "self transfer",
			setup:    func(b *Bank) { _ = b.Deposit("alice", types.USD(100)) },
			transfer: Transfer{From: "alice", To: "alice", Amount: types.USD(50)},
			sentinel: ErrInvalidTransfer,
		},
		{
			name:     "zero amount",
			setup:    func(b *Bank) { _ = b.Deposit("alice", types.USD(100)) },
			transfer: Transfer{From: "alice", To: "bob", Amount: types.USD(0)},
			sentinel: ErrInvalidTransfer,
		},
		{
			name:     "negative amount",
			setup:    func(b *Bank) { _ = b.Deposit("alice", types.USD(100)) },
			transfer: Transfer{From: "alice", To: "bob", Amount: types.USD(-50)},
			sentinel: ErrInvalidTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBank("usd")
			if tt.setup != nil {
				tt.setup(b)
			}
			err := b.Transfer(ctx, tt.transfer.From, tt.transfer.To, tt.transfer.Amount)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("got %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestBankEmptyBatch(t *testing.T) {
	b := NewBank("usd")
	err := b.TransferBatch(context.Background(), nil)
	if !errors.Is(err, ErrInvalidTransfer) {
		t.Errorf("got %v, want ErrInvalidTransfer", err)
	}
}

func TestBankBatchAtomicity(t *testing.T) {
	b := NewBank("usd")
	ctx := context.Background()

	if err := b.Deposit("donor", types.USD(500)); err != nil {
		t.Fatal(err)
	}

	// Each leg is affordable alone but the cumulative debit is not.
	// Nothing may change when the batch fails.
	batch := []Transfer{
		{From: "donor", To: "a", Amount: types.USD(300)},
		{From: "donor", To: "b", Amount: types.USD(300)},
	}
	err := b.TransferBatch(ctx, batch)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	if got := b.Balance("donor"); !got.Equal(types.USD(500)) {
		t.Errorf("donor balance after failed batch: got %v, want %v", got, types.USD(500))
	}
	if got := b.Balance("a"); !got.IsZero() {
		t.Errorf("a balance after failed batch: got %v, want zero", got)
	}
	if got := b.Balance("b"); !got.IsZero() {
		t.Errorf("b balance after failed batch: got %v, want zero", got)
	}

	// The exact cumulative amount succeeds.
	batch = []Transfer{
		{From: "donor", To: "a", Amount: types.USD(250)},
		{From: "donor", To: "b", Amount: types.USD(250)},
	}
	if err := b.TransferBatch(ctx, batch); err != nil {
		t.Fatalf("TransferBatch failed: %v", err)
	}
	if got := b.Balance("donor"); !got.IsZero() {
		t.Errorf("donor balance: got %v, want zero", got)
	}
}

func TestBankCancelledContext(t *testing.T) {
	b := NewBank("usd")
	_ = b.Deposit("alice", types.USD(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Transfer(ctx, "alice", "bob", types.USD(50))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if got := b.Balance("alice"); !got.Equal(types.USD(100)) {
		t.Errorf("balance changed on cancelled context: got %v", got)
	}
}

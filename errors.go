package marketplace

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. All of them are local,
// recoverable-by-caller conditions; none indicates a corrupted ledger.
var (
	// Catalog errors
	ErrInvalidName     = errors.New("marketplace: product name must not be empty")
	ErrInvalidPrice    = errors.New("marketplace: product price must be positive")
	ErrInvalidCategory = errors.New("marketplace: unknown product category")

	// Trade errors
	ErrNotFound         = errors.New("marketplace: product not found")
	ErrAlreadyPurchased = errors.New("marketplace: product already purchased")
	ErrNotPurchased     = errors.New("marketplace: product not purchased")
	ErrPriceMismatch    = errors.New("marketplace: paid amount must equal the price exactly")
	ErrSelfTrade        = errors.New("marketplace: buyer already owns the product")

	// Treasury errors
	ErrZeroAmount      = errors.New("marketplace: donation amount must be positive")
	ErrNoBeneficiaries = errors.New("marketplace: beneficiary set is empty")

	// Service catalog errors
	ErrUnknownServiceType = errors.New("marketplace: unknown service type")

	// Transfer errors
	ErrTransferFailed = errors.New("marketplace: fund transfer failed")

	// Store errors
	ErrStoreNotReady = errors.New("marketplace: store not ready")
	ErrStoreClosed   = errors.New("marketplace: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("marketplace: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownServiceType)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrZeroAmount) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsTradeRejected returns true if the error is a trade-rule rejection:
// the request was well formed but the ledger state forbids it.
func IsTradeRejected(err error) bool {
	return errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrNotPurchased) ||
		errors.Is(err, ErrPriceMismatch) ||
		errors.Is(err, ErrSelfTrade)
}

// IsTransferError returns true if the error came from the fund-transfer
// leg of a mutating call. The ledger state is unchanged in that case.
func IsTransferError(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

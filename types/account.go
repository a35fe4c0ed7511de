package types

// Account identifies a party on the ledger: a product owner, a buyer,
// a donor, or a donation beneficiary. The engine treats it as an opaque
// identifier; it may be a wallet address, a user id, or a test fixture name.
type Account string

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool { return a == "" }

// String returns the raw account identifier.
func (a Account) String() string { return string(a) }

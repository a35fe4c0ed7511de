package donation

import "context"

// Store is the donation-log fragment of the composite store interface.
// The log is append-only: there is no update or delete.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, opts ListOpts) ([]*Record, error)
}

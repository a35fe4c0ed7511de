package event

import "context"

// Store is the event-log fragment of the composite store interface.
// The log is append-only and ordered by append time.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, opts ListOpts) ([]*Record, error)
}

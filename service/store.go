package service

import "context"

// Store is the service-catalog fragment of the composite store interface.
type Store interface {
	// Put registers or re-prices an offering keyed by its type.
	Put(ctx context.Context, off *Offering) error

	// Get returns the offering for a service type.
	Get(ctx context.Context, typ string) (*Offering, error)

	// ListTypes returns all registered service types in registration order.
	ListTypes(ctx context.Context) ([]string, error)
}

package marketplace

import "github.com/xraph/marketplace/id"

// ID is the primary identifier type for Marketplace records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

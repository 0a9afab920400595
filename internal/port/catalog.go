package port

import (
	"context"

	"github.com/freshmandi/grocery/internal/core/domain"
)

// Catalog is the read-only boundary to product records. Callers never
// cache results beyond a single operation; every cart read re-fetches
// live state.
type Catalog interface {
	// Product returns one product, or nil if it does not exist.
	Product(ctx context.Context, id string) (*domain.Product, error)

	// Products returns the products for the given ids, keyed by id.
	// Missing ids are simply absent from the map.
	Products(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

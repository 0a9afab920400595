package port

import (
	"context"

	"github.com/freshmandi/grocery/internal/core/domain"
)

// CartRepository persists the one-cart-per-user document. Save uses the
// cart's version for an optimistic-concurrency check; a lost race
// surfaces as the storage layer's optimistic lock error, never as a
// silently dropped update.
type CartRepository interface {
	// GetByUser returns the user's cart, or nil if none exists yet.
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)

	// Save inserts a new cart or updates an existing one with a version
	// check, bumping cart.Version on success.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the user's cart. Absent cart is not an error.
	Delete(ctx context.Context, userID string) error
}

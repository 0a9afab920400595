package port

import (
	"context"

	"github.com/freshmandi/grocery/internal/core/domain"
)

// AddressRepository reads the external address store.
type AddressRepository interface {
	// GetByID returns the address only if it belongs to the user,
	// otherwise nil.
	GetByID(ctx context.Context, id, userID string) (*domain.Address, error)

	// GetDefault returns the user's default address, or nil if they
	// have none.
	GetDefault(ctx context.Context, userID string) (*domain.Address, error)
}

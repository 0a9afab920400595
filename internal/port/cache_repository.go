package port

import "context"

// CacheRepository is the Redis-backed fast path in front of the
// placement transaction. Stock figures are tracked in grams (integers)
// because the canonical kilogram quantities carry 3 decimals.
type CacheRepository interface {
	// ReserveStock atomically decreases the cached stock figure,
	// returning false when the cache knows the quantity cannot be
	// satisfied. A missing key passes through: the database stays the
	// source of truth.
	ReserveStock(ctx context.Context, productID string, grams int64) (bool, error)

	// ReleaseStock restores a reservation after the authoritative
	// transaction failed.
	ReleaseStock(ctx context.Context, productID string, grams int64) error

	// SetStock seeds or overwrites the cached figure for a product.
	SetStock(ctx context.Context, productID string, grams int64) error

	// SetIdempotency claims an idempotency key, returning false if it
	// was already claimed.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency releases a claimed key so a failed placement can
	// be retried with the same request id.
	ClearIdempotency(ctx context.Context, key string) error
}

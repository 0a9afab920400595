package port

import (
	"context"
	"time"

	"github.com/freshmandi/grocery/internal/core/domain"
)

// PlacementInput carries everything the placement transaction needs that
// is decided outside the transaction. The cart snapshot, the address
// lookup, the stock re-validation, the daily order-id sequence and the
// stock decrement all happen inside the transaction itself.
type PlacementInput struct {
	UserID        string
	AddressID     string
	Method        domain.PaymentMethod
	PaymentStatus domain.PaymentStatus
	PaymentDue    *time.Time

	// Gateway identifiers, set only for verified online payments.
	GatewayOrderID   string
	GatewayPaymentID string

	InitialStatus domain.OrderStatus
	Progress      []domain.ProgressEntry
	DeliveryOTP   string
}

// OrderRepository owns order persistence, including the atomic placement
// transaction: snapshot cart, validate stock, create order, create
// payment, decrement stock, clear cart, all as one unit.
type OrderRepository interface {
	// PlaceOrder runs the full placement transaction. It returns
	// domain.ErrEmptyCart, domain.ErrAddressNotFound or a
	// *domain.StockConflictError on business aborts; any of those
	// guarantees no partial writes.
	PlaceOrder(ctx context.Context, in PlacementInput) (*domain.Order, error)

	// GetByID loads an order with its items and progress history.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// AppendProgress appends a status entry and updates the order's
	// current status.
	AppendProgress(ctx context.Context, orderID string, status domain.OrderStatus, note string) error
}

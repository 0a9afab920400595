package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// OrderItem is an immutable snapshot of a cart line at placement time.
// Name and Price are copied, not referenced, so later catalog edits
// never alter historical orders.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"` // canonical unit
	Price     float64 `json:"price"`
}

// ProgressEntry is one element of an order's append-only status history.
type ProgressEntry struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Order struct {
	ID             string          `json:"id"`      // storage id
	OrderID        string          `json:"orderId"` // human-readable, daily-scoped, e.g. ORD-20260901-0042
	UserID         string          `json:"userId"`
	Items          []OrderItem     `json:"items"`
	Subtotal       float64         `json:"subtotal"`
	CouponDiscount float64         `json:"couponDiscount"`
	DeliveryFee    float64         `json:"deliveryFee"`
	TotalAmount    float64         `json:"totalAmount"`
	ShippingAddr   AddressSnapshot `json:"shippingAddress"`
	Status         OrderStatus     `json:"status"`
	Progress       []ProgressEntry `json:"progress"`
	DeliveryOTP    string          `json:"-"` // shared only with the delivery flow, never in order reads
	AgentID        string          `json:"agentId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// FormatOrderID builds the human-readable order id from a date and a
// same-day sequence number. The sequence must be derived inside the same
// transaction that inserts the order, otherwise two concurrent orders
// can collide.
func FormatOrderID(t time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", t.Format("20060102"), seq)
}

// NewDeliveryOTP returns a 6-digit numeric OTP used as proof of delivery.
func NewDeliveryOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// rand.Reader failing means the platform is broken; a
		// time-derived code keeps delivery flows alive.
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

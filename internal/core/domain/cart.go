package domain

import (
	"time"

	"github.com/freshmandi/grocery/internal/core/unit"
)

// Cart is the one mutable cart per user. It is created lazily on first
// access and destroyed only by successful order placement. Version backs
// the storage layer's optimistic-concurrency check: a read-modify-write
// that raced another writer fails instead of silently losing an update.
type Cart struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Items          []CartItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	CouponDiscount float64    `json:"couponDiscount"`
	TotalAmount    float64    `json:"totalAmount"`
	TotalItems     int        `json:"totalItems"`
	Version        int        `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CartItem is one line of a cart. Quantity is canonical (kg); Unit is
// what the customer picked for display. Price is a snapshot taken at the
// moment the line was last touched, never recomputed from live catalog
// state except when a stock clamp forces it.
type CartItem struct {
	ProductID string    `json:"productId"`
	Quantity  float64   `json:"quantity"`
	Unit      unit.Unit `json:"unit"`
	Price     float64   `json:"price"`
}

func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Item returns the line for a product, or nil.
func (c *Cart) Item(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops the line for a product, keeping order. Removing an
// absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

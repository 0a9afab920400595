// Package pricing computes line-item prices and cart-level aggregates.
// Quantities are truncated, money is rounded up: one contract, applied
// everywhere.
package pricing

import (
	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/unit"
)

const (
	// FreeDeliveryThreshold is the subtotal at and above which delivery
	// is free.
	FreeDeliveryThreshold = 500.0
	// FlatDeliveryFee applies below the threshold.
	FlatDeliveryFee = 50.0
)

// LineItemPrice prices a canonical quantity at the given per-kg price,
// rounded up to 2 decimals.
func LineItemPrice(unitPrice, canonicalQty float64) float64 {
	return unit.RoundUp(canonicalQty*unitPrice, 2)
}

// Recompute refreshes a cart's aggregates from its stored line prices.
// Line prices are snapshots; they are summed, never re-derived from live
// product prices here.
func Recompute(c *domain.Cart) {
	var subtotal float64
	for _, it := range c.Items {
		subtotal += it.Price
	}
	c.Subtotal = unit.RoundUp(subtotal, 2)
	c.TotalItems = len(c.Items)
	c.TotalAmount = unit.Truncate(c.Subtotal-c.CouponDiscount, 3)
}

// DeliveryFee is a pure step function of the subtotal.
func DeliveryFee(subtotal float64) float64 {
	if subtotal >= FreeDeliveryThreshold {
		return 0
	}
	return FlatDeliveryFee
}

// PaymentSummary is the checkout-facing money breakdown.
type PaymentSummary struct {
	Subtotal       float64 `json:"subtotal"`
	CouponDiscount float64 `json:"couponDiscount"`
	DeliveryFee    float64 `json:"deliveryFee"`
	TotalAmount    float64 `json:"totalAmount"`
}

// Summarize derives the payment summary for a cart, adding the delivery
// fee on top of the cart-level total.
func Summarize(c *domain.Cart) PaymentSummary {
	fee := DeliveryFee(c.Subtotal)
	return PaymentSummary{
		Subtotal:       c.Subtotal,
		CouponDiscount: c.CouponDiscount,
		DeliveryFee:    fee,
		TotalAmount:    unit.RoundUp(c.TotalAmount+fee, 2),
	}
}

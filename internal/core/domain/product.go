package domain

import (
	"time"

	"github.com/freshmandi/grocery/internal/core/unit"
)

// Tier classifies the caller and selects which of the two parallel price
// fields applies, and whether a product is visible at all.
type Tier string

const (
	TierConsumer Tier = "consumer"
	TierBusiness Tier = "business"
)

func ParseTier(s string) Tier {
	if Tier(s) == TierBusiness {
		return TierBusiness
	}
	return TierConsumer
}

// Product is owned by the catalog and read-only to this core. StockQty
// and PackagingQty follow different units: stock is canonical (kg/ltr),
// the packaging minimum is expressed in the product's default unit.
type Product struct {
	ID            string
	Name          string
	DefaultUnit   unit.Unit
	ConsumerPrice float64 // per canonical unit
	BusinessPrice float64 // per canonical unit
	StockQty      float64 // canonical unit, never negative
	PackagingQty  float64 // default unit
	Visible       bool
	BusinessOnly  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceFor returns the per-kg price applicable to the given tier.
func (p *Product) PriceFor(t Tier) float64 {
	if t == TierBusiness {
		return p.BusinessPrice
	}
	return p.ConsumerPrice
}

// VisibleTo reports whether the product may be shown to the given tier.
func (p *Product) VisibleTo(t Tier) bool {
	if !p.Visible {
		return false
	}
	if p.BusinessOnly && t != TierBusiness {
		return false
	}
	return true
}

// MinCanonicalQty is the packaging minimum converted to the canonical
// storage unit.
func (p *Product) MinCanonicalQty() float64 {
	q, err := unit.ToCanonical(p.PackagingQty, p.DefaultUnit)
	if err != nil {
		return 0
	}
	return q
}

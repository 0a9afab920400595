package service

import (
	"context"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/pricing"
	"github.com/freshmandi/grocery/internal/port"
)

// SummaryLine is one cart line as presented at checkout.
type SummaryLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	ItemTotal float64 `json:"itemTotal"`
}

// CheckoutSummary is the ephemeral pre-order view: cart lines, the
// default delivery address (nil when the user has none) and the money
// breakdown including the delivery fee.
type CheckoutSummary struct {
	Address        *domain.Address        `json:"deliveryAddress"`
	Lines          []SummaryLine          `json:"items"`
	TotalItems     int                    `json:"totalItems"`
	PaymentSummary pricing.PaymentSummary `json:"paymentSummary"`
}

// ValidationResult reports whether checkout may proceed. Issues is
// itemized so the client can render shortfalls directly; an empty list
// means the order can be placed.
type ValidationResult struct {
	IsValid        bool                   `json:"isValid"`
	Issues         []domain.StockIssue    `json:"stockIssues"`
	Address        *domain.Address        `json:"deliveryAddress,omitempty"`
	PaymentSummary pricing.PaymentSummary `json:"paymentSummary"`
}

// DeliveryQuote describes the fee the current subtotal attracts.
type DeliveryQuote struct {
	Subtotal       float64 `json:"subtotal"`
	DeliveryFee    float64 `json:"deliveryFee"`
	FreeThreshold  float64 `json:"freeDeliveryThreshold"`
	IsFreeDelivery bool    `json:"isFreeDelivery"`
}

// CheckoutService is the read-only gate before order placement. Unlike
// CartService.GetCart it never mutates the cart.
type CheckoutService struct {
	carts     port.CartRepository
	catalog   port.Catalog
	addresses port.AddressRepository
}

func NewCheckoutService(carts port.CartRepository, catalog port.Catalog, addresses port.AddressRepository) *CheckoutService {
	return &CheckoutService{carts: carts, catalog: catalog, addresses: addresses}
}

// Summary builds the checkout view for a user. The cart must be
// non-empty; the default address may be absent (the client prompts for
// one). The tier selects which per-unit price is shown; line totals are
// the cart's stored snapshots either way.
func (s *CheckoutService) Summary(ctx context.Context, userID string, tier domain.Tier) (*CheckoutSummary, error) {
	cart, products, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	address, err := s.addresses.GetDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]SummaryLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		line := SummaryLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Unit:      string(it.Unit),
			ItemTotal: it.Price,
		}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.UnitPrice = p.PriceFor(tier)
		}
		lines = append(lines, line)
	}

	return &CheckoutSummary{
		Address:        address,
		Lines:          lines,
		TotalItems:     cart.TotalItems,
		PaymentSummary: pricing.Summarize(cart),
	}, nil
}

// Validate re-checks every cart line against current stock (not the
// cart's last-clamped snapshot, stock may have moved since) and
// verifies the address belongs to the user.
func (s *CheckoutService) Validate(ctx context.Context, userID, addressID string) (*ValidationResult, error) {
	address, err := s.addresses.GetByID(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, domain.ErrAddressNotFound
	}

	cart, products, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var issues []domain.StockIssue
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			issues = append(issues, domain.StockIssue{ProductID: it.ProductID, Name: "unknown", Requested: it.Quantity})
			continue
		}
		if p.StockQty <= 0 {
			issues = append(issues, domain.StockIssue{ProductID: p.ID, Name: p.Name, Requested: it.Quantity})
			continue
		}
		if it.Quantity > p.StockQty {
			issues = append(issues, domain.StockIssue{ProductID: p.ID, Name: p.Name, Requested: it.Quantity, Available: p.StockQty})
		}
	}

	return &ValidationResult{
		IsValid:        len(issues) == 0,
		Issues:         issues,
		Address:        address,
		PaymentSummary: pricing.Summarize(cart),
	}, nil
}

// Quote returns the delivery fee the live subtotal attracts.
func (s *CheckoutService) Quote(ctx context.Context, userID string) (*DeliveryQuote, error) {
	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	fee := pricing.DeliveryFee(cart.Subtotal)
	return &DeliveryQuote{
		Subtotal:       cart.Subtotal,
		DeliveryFee:    fee,
		FreeThreshold:  pricing.FreeDeliveryThreshold,
		IsFreeDelivery: fee == 0,
	}, nil
}

func (s *CheckoutService) loadCart(ctx context.Context, userID string) (*domain.Cart, map[string]*domain.Product, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if cart.IsEmpty() {
		return nil, nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return cart, products, nil
}

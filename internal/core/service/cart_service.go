package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/pricing"
	"github.com/freshmandi/grocery/internal/core/unit"
	"github.com/freshmandi/grocery/internal/port"
)

var (
	ErrZeroQuantity     = errors.New("quantity must not be zero")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

// ErrOptimisticLock is surfaced by repositories when a versioned write
// lost a race. Cart operations retry it internally.
var ErrOptimisticLock = port.ErrOptimisticLock

// maxSaveAttempts bounds the optimistic-lock retry loop on cart writes.
const maxSaveAttempts = 3

// MinimumQuantityError rejects an add/update below the product's
// packaging minimum. Quantities are expressed in the customer's unit.
type MinimumQuantityError struct {
	Min     float64
	Entered float64
	Unit    unit.Unit
}

func (e *MinimumQuantityError) Error() string {
	return fmt.Sprintf("Minimum order is %s%s. You entered %s%s.",
		unit.Format(e.Min), e.Unit, unit.Format(e.Entered), e.Unit)
}

// CartResult pairs the cart with the informational outcome of a
// mutation. Message is not an error channel: adjustments (stock clamps)
// still succeed.
type CartResult struct {
	Cart              *domain.Cart
	EffectiveQuantity float64
	Message           string
}

// CartService owns the per-user cart. Correctness under concurrent calls
// comes from the repository's optimistic version check; no in-process
// locking is used.
type CartService struct {
	carts   port.CartRepository
	catalog port.Catalog
}

func NewCartService(carts port.CartRepository, catalog port.Catalog) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

// GetCart loads (lazily creating) the user's cart and runs the
// validation pass against live catalog state: lines whose product
// vanished, became invisible to the tier or ran out of stock are
// dropped, over-stock lines are clamped and repriced. The returned
// messages describe every adjustment made; an empty list means the cart
// was already consistent.
func (s *CartService) GetCart(ctx context.Context, userID string, tier domain.Tier) (*domain.Cart, []string, error) {
	var (
		cart     *domain.Cart
		messages []string
	)

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		var err error
		cart, err = s.carts.GetByUser(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		if cart == nil {
			cart = domain.NewCart(userID)
		}

		messages, err = s.revalidate(ctx, cart, tier)
		if err != nil {
			return nil, nil, err
		}

		pricing.Recompute(cart)
		err = s.carts.Save(ctx, cart)
		if errors.Is(err, ErrOptimisticLock) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return cart, messages, nil
	}
	return nil, nil, ErrOptimisticLock
}

// revalidate applies the stock/visibility cleanup to the cart in place
// and returns the adjustment messages.
func (s *CartService) revalidate(ctx context.Context, cart *domain.Cart, tier domain.Tier) ([]string, error) {
	if len(cart.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return nil, err
	}

	var messages []string
	kept := cart.Items[:0]
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		switch {
		case !ok:
			messages = append(messages, "A product was removed from your cart because it no longer exists")
		case !p.VisibleTo(tier):
			messages = append(messages, fmt.Sprintf("%s is not available and was removed from your cart", p.Name))
		case p.StockQty <= 0:
			messages = append(messages, fmt.Sprintf("%s is out of stock and was removed from your cart", p.Name))
		case p.StockQty < it.Quantity:
			display, _ := unit.FromCanonical(p.StockQty, it.Unit)
			messages = append(messages, fmt.Sprintf("%s adjusted to %s%s due to stock limits",
				p.Name, unit.Format(display), it.Unit))
			it.Quantity = p.StockQty
			it.Price = pricing.LineItemPrice(p.PriceFor(tier), it.Quantity)
			kept = append(kept, it)
		default:
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	return messages, nil
}

// AddItem adds quantity to the user's cart. Positive quantities are a
// delta merged into any existing line; negative quantities remove that
// magnitude from an existing line (absent line is an error). A request
// that meets or exceeds live stock is clamped, not rejected.
func (s *CartService) AddItem(ctx context.Context, userID string, tier domain.Tier, productID string, quantity float64, unitStr string) (*CartResult, error) {
	if quantity == 0 {
		return nil, ErrZeroQuantity
	}
	u, err := unit.Parse(unitStr)
	if err != nil {
		return nil, err
	}
	canonical, err := unit.ToCanonical(quantity, u)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		// Live product state, re-fetched every attempt.
		p, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.VisibleTo(tier) {
			return nil, domain.ErrProductNotFound
		}
		if p.StockQty <= 0 {
			return nil, domain.ErrOutOfStock
		}

		cart, err := s.carts.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			cart = domain.NewCart(userID)
		}

		line := cart.Item(productID)

		if quantity < 0 {
			if line == nil {
				return nil, domain.ErrItemNotFound
			}
			res, err := s.decreaseLine(cart, line, p, tier, canonical)
			if err != nil {
				return nil, err
			}
			if saveErr := s.carts.Save(ctx, cart); saveErr != nil {
				if errors.Is(saveErr, ErrOptimisticLock) {
					continue
				}
				return nil, saveErr
			}
			return res, nil
		}

		// Packaging minimum applies to the requested quantity, reported
		// in the customer's own unit.
		minCanonical := p.MinCanonicalQty()
		if canonical < minCanonical {
			minDisplay, _ := unit.FromCanonical(minCanonical, u)
			return nil, &MinimumQuantityError{Min: minDisplay, Entered: quantity, Unit: u}
		}

		newQty := canonical
		if line != nil {
			newQty = unit.Truncate(line.Quantity+canonical, 3)
		}

		var message string
		if newQty >= p.StockQty {
			// Partial fulfillment beats hard failure: clamp and report.
			display, _ := unit.FromCanonical(p.StockQty, u)
			message = fmt.Sprintf("Only %s%s of %s available. Quantity adjusted to %s%s.",
				unit.Format(display), u, p.Name, unit.Format(display), u)
			newQty = p.StockQty
		}

		price := pricing.LineItemPrice(p.PriceFor(tier), newQty)
		if line != nil {
			line.Quantity = newQty
			line.Unit = u
			line.Price = price
		} else {
			cart.Items = append(cart.Items, domain.CartItem{
				ProductID: productID,
				Quantity:  newQty,
				Unit:      u,
				Price:     price,
			})
		}
		pricing.Recompute(cart)

		if err := s.carts.Save(ctx, cart); err != nil {
			if errors.Is(err, ErrOptimisticLock) {
				continue
			}
			return nil, err
		}

		effective, _ := unit.FromCanonical(newQty, u)
		return &CartResult{Cart: cart, EffectiveQuantity: effective, Message: message}, nil
	}
	return nil, ErrOptimisticLock
}

// decreaseLine handles the negative-delta branch of AddItem. Dropping to
// zero or below removes the line.
func (s *CartService) decreaseLine(cart *domain.Cart, line *domain.CartItem, p *domain.Product, tier domain.Tier, delta float64) (*CartResult, error) {
	newQty := unit.Truncate(line.Quantity+delta, 3)
	var effective float64
	if newQty <= 0 {
		cart.RemoveItem(line.ProductID)
	} else {
		line.Quantity = newQty
		line.Price = pricing.LineItemPrice(p.PriceFor(tier), newQty)
		effective, _ = unit.FromCanonical(newQty, line.Unit)
	}
	pricing.Recompute(cart)
	return &CartResult{Cart: cart, EffectiveQuantity: effective}, nil
}

// UpdateQuantity sets a line's quantity absolutely. Zero removes the
// line; negative is rejected (unlike AddItem, update is not a delta).
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, tier domain.Tier, productID string, quantity float64, unitStr string) (*CartResult, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	u, err := unit.Parse(unitStr)
	if err != nil {
		return nil, err
	}
	canonical, err := unit.ToCanonical(quantity, u)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.carts.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			return nil, domain.ErrItemNotFound
		}
		line := cart.Item(productID)
		if line == nil {
			return nil, domain.ErrItemNotFound
		}

		if quantity == 0 {
			cart.RemoveItem(productID)
			pricing.Recompute(cart)
			if err := s.carts.Save(ctx, cart); err != nil {
				if errors.Is(err, ErrOptimisticLock) {
					continue
				}
				return nil, err
			}
			return &CartResult{Cart: cart}, nil
		}

		p, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.VisibleTo(tier) {
			return nil, domain.ErrProductNotFound
		}
		if p.StockQty <= 0 {
			return nil, domain.ErrOutOfStock
		}

		minCanonical := p.MinCanonicalQty()
		if canonical < minCanonical {
			minDisplay, _ := unit.FromCanonical(minCanonical, u)
			return nil, &MinimumQuantityError{Min: minDisplay, Entered: quantity, Unit: u}
		}

		newQty := canonical
		var message string
		if newQty > p.StockQty {
			display, _ := unit.FromCanonical(p.StockQty, u)
			message = fmt.Sprintf("Only %s%s of %s available. Quantity adjusted to %s%s.",
				unit.Format(display), u, p.Name, unit.Format(display), u)
			newQty = p.StockQty
		}

		line.Quantity = newQty
		line.Unit = u
		line.Price = pricing.LineItemPrice(p.PriceFor(tier), newQty)
		pricing.Recompute(cart)

		if err := s.carts.Save(ctx, cart); err != nil {
			if errors.Is(err, ErrOptimisticLock) {
				continue
			}
			return nil, err
		}

		effective, _ := unit.FromCanonical(newQty, u)
		return &CartResult{Cart: cart, EffectiveQuantity: effective, Message: message}, nil
	}
	return nil, ErrOptimisticLock
}

// RemoveItem drops a product from the cart. Removing an absent product
// is not an error; the current cart is recomputed and returned as-is.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.carts.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			cart = domain.NewCart(userID)
		}
		cart.RemoveItem(productID)
		pricing.Recompute(cart)

		if err := s.carts.Save(ctx, cart); err != nil {
			if errors.Is(err, ErrOptimisticLock) {
				continue
			}
			return nil, err
		}
		return cart, nil
	}
	return nil, ErrOptimisticLock
}

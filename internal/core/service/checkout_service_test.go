package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/pricing"
)

type seedLine struct {
	id   string
	qty  float64
	unit string
}

func seedCart(t *testing.T, carts *mockCartRepo, catalog *mockCatalog, userID string, adds ...seedLine) {
	t.Helper()
	svc := NewCartService(carts, catalog)
	for _, add := range adds {
		if _, err := svc.AddItem(context.Background(), userID, domain.TierConsumer, add.id, add.qty, add.unit); err != nil {
			t.Fatalf("seed add %s: %v", add.id, err)
		}
	}
}

func homeAddress(userID string) *domain.Address {
	return &domain.Address{
		ID:              "addr-1",
		UserID:          userID,
		CompleteAddress: "14 MG Road",
		City:            "Bengaluru",
		State:           "Karnataka",
		Pincode:         "560001",
		Nickname:        "Home",
		IsDefault:       true,
	}
}

func TestSummary_EmptyCart(t *testing.T) {
	svc := NewCheckoutService(newMockCartRepo(), newMockCatalog(), newMockAddressRepo())

	_, err := svc.Summary(context.Background(), "u1", domain.TierConsumer)
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestSummary_IncludesAddressAndTotals(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 2, "kg"})
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(homeAddress("u1")))

	sum, err := svc.Summary(context.Background(), "u1", domain.TierConsumer)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Address == nil || sum.Address.ID != "addr-1" {
		t.Errorf("expected the default address, got %+v", sum.Address)
	}
	if len(sum.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(sum.Lines))
	}
	line := sum.Lines[0]
	if line.Name != "Basmati Rice" || !closeEnough(line.ItemTotal, 160) {
		t.Errorf("line = %+v", line)
	}
	// 160 subtotal is under the free-delivery threshold.
	if !closeEnough(sum.PaymentSummary.DeliveryFee, pricing.FlatDeliveryFee) {
		t.Errorf("delivery fee = %v, want %v", sum.PaymentSummary.DeliveryFee, pricing.FlatDeliveryFee)
	}
	if !closeEnough(sum.PaymentSummary.TotalAmount, 210) {
		t.Errorf("total = %v, want 210", sum.PaymentSummary.TotalAmount)
	}
}

func TestSummary_BusinessTierUnitPrice(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 2, "kg"})
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(homeAddress("u1")))

	sum, err := svc.Summary(context.Background(), "u1", domain.TierBusiness)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(sum.Lines))
	}
	// A business caller sees the business per-kg price; the line total
	// stays the cart's stored snapshot.
	if !closeEnough(sum.Lines[0].UnitPrice, 72) {
		t.Errorf("unit price = %v, want the business price 72", sum.Lines[0].UnitPrice)
	}
	if !closeEnough(sum.Lines[0].ItemTotal, 160) {
		t.Errorf("item total = %v, want the stored snapshot 160", sum.Lines[0].ItemTotal)
	}
}

func TestSummary_NoDefaultAddress(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 2, "kg"})
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo())

	sum, err := svc.Summary(context.Background(), "u1", domain.TierConsumer)
	if err != nil {
		t.Fatalf("summary without address should succeed: %v", err)
	}
	if sum.Address != nil {
		t.Errorf("expected nil address, got %+v", sum.Address)
	}
}

func TestValidate_AddressOwnership(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 2, "kg"})
	other := homeAddress("someone-else")
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(other))

	_, err := svc.Validate(context.Background(), "u1", "addr-1")
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("another user's address must not validate, got %v", err)
	}
}

func TestValidate_CleanCart(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 2, "kg"})
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(homeAddress("u1")))

	res, err := svc.Validate(context.Background(), "u1", "addr-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.IsValid {
		t.Errorf("expected valid, issues: %+v", res.Issues)
	}
	if len(res.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", res.Issues)
	}
}

func TestValidate_ItemizesShortfalls(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct(), milkProduct())
	seedCart(t, carts, catalog, "u1",
		seedLine{"rice", 5, "kg"},
		seedLine{"milk", 4, "ltr"},
	)
	// Stock moved after the cart was built.
	catalog.setStock("rice", 2)
	catalog.setStock("milk", 0)
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(homeAddress("u1")))

	res, err := svc.Validate(context.Background(), "u1", "addr-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.IsValid {
		t.Fatal("expected invalid")
	}
	if len(res.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", res.Issues)
	}
	byID := make(map[string]domain.StockIssue)
	for _, is := range res.Issues {
		byID[is.ProductID] = is
	}
	if is := byID["rice"]; !closeEnough(is.Requested, 5) || !closeEnough(is.Available, 2) {
		t.Errorf("rice issue = %+v", is)
	}
	if is := byID["milk"]; !closeEnough(is.Available, 0) {
		t.Errorf("milk issue = %+v", is)
	}
}

func TestValidate_DoesNotMutateCart(t *testing.T) {
	carts := newMockCartRepo()
	catalog := newMockCatalog(riceProduct())
	seedCart(t, carts, catalog, "u1", seedLine{"rice", 5, "kg"})
	catalog.setStock("rice", 2)
	svc := NewCheckoutService(carts, catalog, newMockAddressRepo(homeAddress("u1")))

	if _, err := svc.Validate(context.Background(), "u1", "addr-1"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cart, err := carts.GetByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	line := cart.Item("rice")
	if line == nil || !closeEnough(line.Quantity, 5) {
		t.Errorf("validation must be read-only, cart line = %+v", line)
	}
}

func TestQuote_FeeSteps(t *testing.T) {
	tests := []struct {
		name    string
		qty     float64 // kg of rice at 80/kg
		wantFee float64
		free    bool
	}{
		{"below threshold", 2, 50, false}, // subtotal 160
		{"at threshold", 6.25, 0, true},   // subtotal 500
		{"above threshold", 10, 0, true},  // subtotal 800
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := newMockCartRepo()
			catalog := newMockCatalog(riceProduct())
			seedCart(t, carts, catalog, "u1", seedLine{"rice", tt.qty, "kg"})
			svc := NewCheckoutService(carts, catalog, newMockAddressRepo())

			q, err := svc.Quote(context.Background(), "u1")
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if !closeEnough(q.DeliveryFee, tt.wantFee) {
				t.Errorf("fee = %v, want %v (subtotal %v)", q.DeliveryFee, tt.wantFee, q.Subtotal)
			}
			if q.IsFreeDelivery != tt.free {
				t.Errorf("isFreeDelivery = %v, want %v", q.IsFreeDelivery, tt.free)
			}
		})
	}
}

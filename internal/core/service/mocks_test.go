package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/port"
)

var (
	_ port.Catalog           = (*mockCatalog)(nil)
	_ port.CartRepository    = (*mockCartRepo)(nil)
	_ port.AddressRepository = (*mockAddressRepo)(nil)
	_ port.CacheRepository   = (*mockCacheRepo)(nil)
	_ port.PaymentGateway    = (*mockGateway)(nil)
	_ port.OrderRepository   = (*mockOrderRepo)(nil)
)

// Mock Catalog

type mockCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) Product(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalog) Products(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]*domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}

func (m *mockCatalog) setStock(id string, stock float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].StockQty = stock
}

// Mock CartRepository with a real optimistic-concurrency check, so the
// retry loops in CartService are exercised the way MySQL would.

type mockCartRepo struct {
	mu     sync.Mutex
	carts  map[string]*domain.Cart
	nextID int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*domain.Cart)}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp
}

func (m *mockCartRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cart.ID == "" {
		// user_id is unique, so the second of two racing first-time
		// inserts fails like MySQL's duplicate-key error does.
		if _, exists := m.carts[cart.UserID]; exists {
			return port.ErrOptimisticLock
		}
		m.nextID++
		cart.ID = fmt.Sprintf("cart-%d", m.nextID)
		cart.Version = 0
		m.carts[cart.UserID] = copyCart(cart)
		return nil
	}

	stored, ok := m.carts[cart.UserID]
	if !ok || stored.Version != cart.Version {
		return port.ErrOptimisticLock
	}
	cart.Version++
	m.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

// Mock AddressRepository

type mockAddressRepo struct {
	addresses map[string]*domain.Address // by id
}

func newMockAddressRepo(addresses ...*domain.Address) *mockAddressRepo {
	m := &mockAddressRepo{addresses: make(map[string]*domain.Address)}
	for _, a := range addresses {
		m.addresses[a.ID] = a
	}
	return m
}

func (m *mockAddressRepo) GetByID(ctx context.Context, id, userID string) (*domain.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

func (m *mockAddressRepo) GetDefault(ctx context.Context, userID string) (*domain.Address, error) {
	for _, a := range m.addresses {
		if a.UserID == userID && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}

// Mock CacheRepository

type mockCacheRepo struct {
	mu          sync.Mutex
	stock       map[string]int64 // grams; absent key passes through
	idempotency map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		stock:       make(map[string]int64),
		idempotency: make(map[string]bool),
	}
}

func (m *mockCacheRepo) ReserveStock(ctx context.Context, productID string, grams int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.stock[productID]
	if !ok {
		return true, nil
	}
	if current >= grams {
		m.stock[productID] = current - grams
		return true, nil
	}
	return false, nil
}

func (m *mockCacheRepo) ReleaseStock(ctx context.Context, productID string, grams int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stock[productID]; ok {
		m.stock[productID] += grams
	}
	return nil
}

func (m *mockCacheRepo) SetStock(ctx context.Context, productID string, grams int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = grams
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}

func (m *mockCacheRepo) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotency, key)
	return nil
}

// Mock PaymentGateway

type mockGateway struct {
	validSignature string
	createdOrders  int
}

func (m *mockGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*port.GatewayOrder, error) {
	m.createdOrders++
	return &port.GatewayOrder{
		ID:       fmt.Sprintf("order_gw_%d", m.createdOrders),
		Amount:   amountPaise,
		Currency: "INR",
		Receipt:  receipt,
	}, nil
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == m.validSignature
}

// Mock OrderRepository

type mockOrderRepo struct {
	mu         sync.Mutex
	placeErr   error
	placeCalls []port.PlacementInput
	orders     map[string]*domain.Order
	nextSeq    int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) PlaceOrder(ctx context.Context, in port.PlacementInput) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeCalls = append(m.placeCalls, in)
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.nextSeq++
	order := &domain.Order{
		ID:          fmt.Sprintf("oid-%d", m.nextSeq),
		OrderID:     domain.FormatOrderID(time.Now(), m.nextSeq),
		UserID:      in.UserID,
		Status:      in.InitialStatus,
		Progress:    in.Progress,
		DeliveryOTP: in.DeliveryOTP,
		CreatedAt:   time.Now(),
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) AppendProgress(ctx context.Context, orderID string, status domain.OrderStatus, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.Progress = append(o.Progress, domain.ProgressEntry{Status: status, Note: note, CreatedAt: time.Now()})
	return nil
}

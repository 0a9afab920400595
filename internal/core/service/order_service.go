package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/pricing"
	"github.com/freshmandi/grocery/internal/port"
)

var (
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrSignatureMismatch = errors.New("payment verification failed")
	ErrInvalidOTP        = errors.New("delivery OTP does not match")
)

// creditDueDays is the settlement window granted to credit customers.
const creditDueDays = 15

// PlaceOrderRequest places an order settled by an offline method (cash
// on delivery or credit). RequestID makes retries safe: the same id
// never places twice.
type PlaceOrderRequest struct {
	UserID    string
	AddressID string
	MethodKey string
	RequestID string
}

// VerifyRequest finalizes an online payment: the gateway callback's
// signature is checked before any state is touched.
type VerifyRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	UserID           string
	AddressID        string
	MethodKey        string
	RequestID        string
}

// OrderService drives the order placement pipeline. The authoritative
// transaction lives in the order repository; this layer adds the
// idempotency claim, the Redis stock fast path, OTP and due-date
// generation and the overall deadline.
type OrderService struct {
	orders  port.OrderRepository
	carts   port.CartRepository
	cache   port.CacheRepository
	gateway port.PaymentGateway
	timeout time.Duration
}

func NewOrderService(orders port.OrderRepository, carts port.CartRepository, cache port.CacheRepository, gateway port.PaymentGateway, timeout time.Duration) *OrderService {
	return &OrderService{
		orders:  orders,
		carts:   carts,
		cache:   cache,
		gateway: gateway,
		timeout: timeout,
	}
}

// PlaceOrder runs the full placement pipeline for an offline payment
// method. Business failures (empty cart, missing address, stock
// conflict) abort with no partial state and release the idempotency
// claim so a corrected retry may reuse the request id.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	key := fmt.Sprintf("order:%s:%s", req.UserID, req.RequestID)
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	method := domain.MapPaymentMethod(req.MethodKey)
	now := time.Now()
	in := port.PlacementInput{
		UserID:        req.UserID,
		AddressID:     req.AddressID,
		Method:        method,
		PaymentStatus: domain.PaymentStatusPending,
		InitialStatus: domain.OrderStatusPending,
		Progress: []domain.ProgressEntry{
			{Status: domain.OrderStatusPending, Note: "Order placed by customer", CreatedAt: now},
		},
		DeliveryOTP: domain.NewDeliveryOTP(),
	}
	if method == domain.PaymentMethodCredit {
		due := now.AddDate(0, 0, creditDueDays)
		in.PaymentDue = &due
	}

	order, err := s.place(ctx, in)
	if err != nil {
		if clearErr := s.cache.ClearIdempotency(context.WithoutCancel(ctx), key); clearErr != nil {
			log.Printf("failed to release idempotency key %s: %v", key, clearErr)
		}
		return nil, err
	}
	return order, nil
}

// CreateGatewayOrder pre-authorizes the current cart total with the
// payment gateway. Nothing is persisted locally; the order itself is
// only created by the verified callback.
func (s *OrderService) CreateGatewayOrder(ctx context.Context, userID string) (*port.GatewayOrder, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	total := pricing.Summarize(cart).TotalAmount
	amountPaise := int64(math.Round(total * 100))
	receipt := "rcpt-" + uuid.NewString()

	return s.gateway.CreateOrder(ctx, amountPaise, receipt)
}

// VerifyAndPlaceOrder checks the gateway callback's HMAC signature over
// "orderID|paymentID" and, only then, runs the same placement
// transaction with the payment recorded as settled.
func (s *OrderService) VerifyAndPlaceOrder(ctx context.Context, req VerifyRequest) (*domain.Order, error) {
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		return nil, ErrSignatureMismatch
	}

	key := fmt.Sprintf("order:%s:%s", req.UserID, req.RequestID)
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	now := time.Now()
	in := port.PlacementInput{
		UserID:           req.UserID,
		AddressID:        req.AddressID,
		Method:           domain.MapPaymentMethod(req.MethodKey),
		PaymentStatus:    domain.PaymentStatusPaid,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		InitialStatus:    domain.OrderStatusConfirmed,
		Progress: []domain.ProgressEntry{
			{Status: domain.OrderStatusPending, Note: "Order placed by customer", CreatedAt: now},
			{Status: domain.OrderStatusConfirmed, Note: "Payment received", CreatedAt: now},
		},
		DeliveryOTP: domain.NewDeliveryOTP(),
	}

	order, err := s.place(ctx, in)
	if err != nil {
		if clearErr := s.cache.ClearIdempotency(context.WithoutCancel(ctx), key); clearErr != nil {
			log.Printf("failed to release idempotency key %s: %v", key, clearErr)
		}
		return nil, err
	}
	return order, nil
}

// place runs the Redis fast path and then the placement transaction,
// bounded by a deadline. An open transaction holding stock locks is a
// liveness hazard under contention and must fail closed.
func (s *OrderService) place(ctx context.Context, in port.PlacementInput) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.GetByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	reserved, err := s.reserve(ctx, cart)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.PlaceOrder(ctx, in)
	if err != nil {
		s.release(context.WithoutCancel(ctx), reserved)
		return nil, err
	}
	return order, nil
}

type reservation struct {
	productID string
	grams     int64
}

// reserve claims cached stock figures before the database transaction
// opens, so a hopeless request under flash load is refused without
// touching MySQL. Missing cache keys pass through; the database stays
// the source of truth.
func (s *OrderService) reserve(ctx context.Context, cart *domain.Cart) ([]reservation, error) {
	var reserved []reservation
	for _, it := range cart.Items {
		grams := int64(math.Round(it.Quantity * 1000))
		ok, err := s.cache.ReserveStock(ctx, it.ProductID, grams)
		if err != nil {
			// Cache outage must not block orders.
			log.Printf("stock cache unavailable for %s: %v", it.ProductID, err)
			continue
		}
		if !ok {
			s.release(ctx, reserved)
			return nil, &domain.StockConflictError{Issues: []domain.StockIssue{
				{ProductID: it.ProductID, Requested: it.Quantity},
			}}
		}
		reserved = append(reserved, reservation{productID: it.ProductID, grams: grams})
	}
	return reserved, nil
}

func (s *OrderService) release(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.cache.ReleaseStock(ctx, r.productID, r.grams); err != nil {
			log.Printf("CRITICAL: failed to release cached stock for %s: %v", r.productID, err)
		}
	}
}

// GetOrder loads one order with items and progress history.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders returns a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// AppendProgress appends to the order's append-only status history and
// moves its current status.
func (s *OrderService) AppendProgress(ctx context.Context, orderID string, status domain.OrderStatus, note string) error {
	return s.orders.AppendProgress(ctx, orderID, status, note)
}

// VerifyDeliveryOTP confirms proof of delivery, moving the order to
// Delivered on a match.
func (s *OrderService) VerifyDeliveryOTP(ctx context.Context, orderID, otp string) error {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.DeliveryOTP != otp {
		return ErrInvalidOTP
	}
	return s.orders.AppendProgress(ctx, orderID, domain.OrderStatusDelivered, "Delivery confirmed with OTP")
}

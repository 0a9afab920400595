package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/pricing"
	"github.com/freshmandi/grocery/internal/core/unit"
	"github.com/freshmandi/grocery/internal/port"
)

// placeOrderFailpoint, when set, is called between the stock decrement
// and the cart deletion. Tests use it to prove the transaction rolls
// back as one unit.
var placeOrderFailpoint func() error

// MySQLOrderStore owns order persistence including the atomic placement
// transaction.
type MySQLOrderStore struct {
	db *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{db: db}
}

type lockedLine struct {
	productID string
	name      string
	quantity  float64
	price     float64
	stock     float64
	missing   bool
}

// PlaceOrder executes the whole placement pipeline in one transaction:
// lock cart and product rows, re-validate stock, snapshot line items at
// their cart prices, derive the daily order sequence, insert order,
// progress and payment rows, decrement stock conditionally and delete
// the cart. Every failure between begin and commit rolls the lot back.
func (s *MySQLOrderStore) PlaceOrder(ctx context.Context, in port.PlacementInput) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		cartID         string
		subtotal       float64
		couponDiscount float64
		totalAmount    float64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, subtotal, coupon_discount, total_amount
		FROM carts WHERE user_id = ? FOR UPDATE`, in.UserID,
	).Scan(&cartID, &subtotal, &couponDiscount, &totalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := s.lockLines(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var addr domain.AddressSnapshot
	err = tx.QueryRowContext(ctx, `
		SELECT complete_address, landmark, city, state, pincode
		FROM addresses WHERE id = ? AND user_id = ?`, in.AddressID, in.UserID,
	).Scan(&addr.CompleteAddress, &addr.Landmark, &addr.City, &addr.State, &addr.Pincode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load address: %w", err)
	}

	// Re-validate every line against the stock figure we just locked.
	// Any shortfall aborts the whole order; nothing is partially created.
	var issues []domain.StockIssue
	for _, l := range lines {
		if l.missing {
			issues = append(issues, domain.StockIssue{ProductID: l.productID, Name: "unknown", Requested: l.quantity})
			continue
		}
		if l.stock < l.quantity {
			issues = append(issues, domain.StockIssue{
				ProductID: l.productID,
				Name:      l.name,
				Requested: l.quantity,
				Available: l.stock,
			})
		}
	}
	if len(issues) > 0 {
		return nil, &domain.StockConflictError{Issues: issues}
	}

	// Daily sequence, counted inside the transaction. The count is a
	// locking read: a plain SELECT would use the transaction snapshot
	// and miss orders committed after this transaction began, letting
	// two placements compute the same number. The unique index on
	// order_id backs this up.
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var sameDay int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= ? FOR UPDATE`, dayStart,
	).Scan(&sameDay); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	deliveryFee := pricing.DeliveryFee(subtotal)
	grandTotal := unit.RoundUp(totalAmount+deliveryFee, 2)

	order := &domain.Order{
		ID:             uuid.NewString(),
		OrderID:        domain.FormatOrderID(now, sameDay+1),
		UserID:         in.UserID,
		Subtotal:       subtotal,
		CouponDiscount: couponDiscount,
		DeliveryFee:    deliveryFee,
		TotalAmount:    grandTotal,
		ShippingAddr:   addr,
		Status:         in.InitialStatus,
		Progress:       in.Progress,
		DeliveryOTP:    in.DeliveryOTP,
		CreatedAt:      now,
	}
	for _, l := range lines {
		// Prices are the cart's snapshots, exactly what the customer
		// saw; they are not recomputed here.
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: l.productID,
			Name:      l.name,
			Quantity:  l.quantity,
			Price:     l.price,
		})
	}

	if err := s.insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	if in.Method.Offline() || in.GatewayPaymentID != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, method, status, amount, gateway_order_id, gateway_payment_id, due_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), order.ID, string(in.Method), string(in.PaymentStatus),
			order.TotalAmount, in.GatewayOrderID, in.GatewayPaymentID, in.PaymentDue, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert payment: %w", err)
		}
	}

	// Conditional decrement: the WHERE guard keeps stock non-negative
	// even if a lock was somehow bypassed.
	for _, l := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - ?
			WHERE id = ? AND stock_qty >= ?`,
			l.quantity, l.productID, l.quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil, &domain.StockConflictError{Issues: []domain.StockIssue{
				{ProductID: l.productID, Name: l.name, Requested: l.quantity, Available: l.stock},
			}}
		}
	}

	if placeOrderFailpoint != nil {
		if err := placeOrderFailpoint(); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return order, nil
}

func (s *MySQLOrderStore) lockLines(ctx context.Context, tx *sql.Tx, cartID string) ([]lockedLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, ci.quantity, ci.price, p.name, p.stock_qty
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.position
		FOR UPDATE`, cartID)
	if err != nil {
		return nil, fmt.Errorf("lock cart items: %w", err)
	}
	defer rows.Close()

	var lines []lockedLine
	for rows.Next() {
		var (
			l     lockedLine
			name  sql.NullString
			stock sql.NullFloat64
		)
		if err := rows.Scan(&l.productID, &l.quantity, &l.price, &name, &stock); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if !name.Valid {
			l.missing = true
		} else {
			l.name = name.String
			l.stock = stock.Float64
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *MySQLOrderStore) insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_id, user_id, subtotal, coupon_discount, delivery_fee, total_amount,
			complete_address, landmark, city, state, pincode, status, delivery_otp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderID, order.UserID, order.Subtotal, order.CouponDiscount,
		order.DeliveryFee, order.TotalAmount,
		order.ShippingAddr.CompleteAddress, order.ShippingAddr.Landmark, order.ShippingAddr.City,
		order.ShippingAddr.State, order.ShippingAddr.Pincode,
		string(order.Status), order.DeliveryOTP, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, i, it.ProductID, it.Name, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, p := range order.Progress {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_progress (order_id, status, note, created_at)
			VALUES (?, ?, ?, ?)`,
			order.ID, string(p.Status), p.Note, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order progress: %w", err)
		}
	}
	return nil
}

// GetByID loads an order with its items and progress history. Returns
// nil when absent.
func (s *MySQLOrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var (
		order   domain.Order
		agentID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, subtotal, coupon_discount, delivery_fee, total_amount,
			complete_address, landmark, city, state, pincode, status, delivery_otp, agent_id, created_at
		FROM orders WHERE id = ? OR order_id = ?`, id, id,
	).Scan(&order.ID, &order.OrderID, &order.UserID, &order.Subtotal, &order.CouponDiscount,
		&order.DeliveryFee, &order.TotalAmount,
		&order.ShippingAddr.CompleteAddress, &order.ShippingAddr.Landmark, &order.ShippingAddr.City,
		&order.ShippingAddr.State, &order.ShippingAddr.Pincode,
		&order.Status, &order.DeliveryOTP, &agentID, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	order.AgentID = agentID.String

	if err := s.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	if err := s.loadProgress(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, items included.
func (s *MySQLOrderStore) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, user_id, subtotal, coupon_discount, delivery_fee, total_amount,
			complete_address, landmark, city, state, pincode, status, delivery_otp, agent_id, created_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			order   domain.Order
			agentID sql.NullString
		)
		if err := rows.Scan(&order.ID, &order.OrderID, &order.UserID, &order.Subtotal, &order.CouponDiscount,
			&order.DeliveryFee, &order.TotalAmount,
			&order.ShippingAddr.CompleteAddress, &order.ShippingAddr.Landmark, &order.ShippingAddr.City,
			&order.ShippingAddr.State, &order.ShippingAddr.Pincode,
			&order.Status, &order.DeliveryOTP, &agentID, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.AgentID = agentID.String
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// AppendProgress appends a history entry and moves the current status in
// one transaction.
func (s *MySQLOrderStore) AppendProgress(ctx context.Context, orderID string, status domain.OrderStatus, note string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Existence is checked explicitly: RowsAffected is unreliable here
	// because MySQL reports zero when the status value is unchanged.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ? FOR UPDATE`, orderID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_progress (order_id, status, note, created_at)
		VALUES (?, ?, ?, ?)`, orderID, string(status), note, time.Now())
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}

	return tx.Commit()
}

func (s *MySQLOrderStore) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	return rows.Err()
}

func (s *MySQLOrderStore) loadProgress(ctx context.Context, order *domain.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, note, created_at
		FROM order_progress WHERE order_id = ? ORDER BY id`, order.ID)
	if err != nil {
		return fmt.Errorf("query order progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.ProgressEntry
		if err := rows.Scan(&p.Status, &p.Note, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan order progress: %w", err)
		}
		order.Progress = append(order.Progress, p)
	}
	return rows.Err()
}

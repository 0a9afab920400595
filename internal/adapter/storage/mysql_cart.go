package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/unit"
	"github.com/freshmandi/grocery/internal/port"
)

// MySQLCartStore persists the one-cart-per-user document with an
// optimistic version check on updates.
type MySQLCartStore struct {
	db *sql.DB
}

func NewMySQLCartStore(db *sql.DB) *MySQLCartStore {
	return &MySQLCartStore{db: db}
}

// GetByUser returns the user's cart with its lines, or nil when none
// exists yet.
func (s *MySQLCartStore) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, subtotal, coupon_discount, total_amount, total_items, version, created_at, updated_at
		FROM carts WHERE user_id = ?`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.Subtotal, &cart.CouponDiscount,
		&cart.TotalAmount, &cart.TotalItems, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit, price
		FROM cart_items WHERE cart_id = ? ORDER BY position`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      domain.CartItem
			unitStr string
		)
		if err := rows.Scan(&it.ProductID, &it.Quantity, &unitStr, &it.Price); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		it.Unit = unit.Unit(unitStr)
		cart.Items = append(cart.Items, it)
	}
	return &cart, rows.Err()
}

// Save inserts a new cart, or replaces an existing one guarded by its
// version: a concurrent writer that bumped the version first makes this
// call fail with port.ErrOptimisticLock instead of silently losing an
// update.
func (s *MySQLCartStore) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if cart.ID == "" {
		cart.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO carts (id, user_id, subtotal, coupon_discount, total_amount, total_items, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			cart.ID, cart.UserID, cart.Subtotal, cart.CouponDiscount,
			cart.TotalAmount, cart.TotalItems, now, now,
		)
		if err != nil {
			// carts.user_id is unique, so two first-time requests can both
			// see no cart and race on the insert. The loser's duplicate-key
			// failure is a lost write race, not a storage fault: report it
			// as a lock conflict so the caller re-reads and merges.
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
				return port.ErrOptimisticLock
			}
			return fmt.Errorf("insert cart: %w", err)
		}
		cart.Version = 0
	} else {
		result, err := tx.ExecContext(ctx, `
			UPDATE carts
			SET subtotal = ?, coupon_discount = ?, total_amount = ?, total_items = ?,
				version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			cart.Subtotal, cart.CouponDiscount, cart.TotalAmount, cart.TotalItems,
			now, cart.ID, cart.Version,
		)
		if err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return port.ErrOptimisticLock
		}
		cart.Version++

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
	}

	for i, it := range cart.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, position, product_id, quantity, unit, price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cart.ID, i, it.ProductID, it.Quantity, string(it.Unit), it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes the user's cart. Absent cart is not an error.
func (s *MySQLCartStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

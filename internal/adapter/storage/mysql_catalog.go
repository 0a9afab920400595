package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/unit"
)

// MySQLCatalog is the read-only product accessor. Catalog writes belong
// to the admin surface and never happen here.
type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

const productColumns = `id, name, default_unit, consumer_price, business_price, stock_qty, packaging_qty, visible, business_only, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var (
		p       domain.Product
		unitStr string
	)
	err := row.Scan(&p.ID, &p.Name, &unitStr, &p.ConsumerPrice, &p.BusinessPrice,
		&p.StockQty, &p.PackagingQty, &p.Visible, &p.BusinessOnly, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DefaultUnit = unit.Unit(unitStr)
	return &p, nil
}

// Product returns one product, or nil when absent.
func (c *MySQLCatalog) Product(ctx context.Context, id string) (*domain.Product, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// Products bulk-loads the given ids; missing ids are absent from the map.
func (c *MySQLCatalog) Products(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Business errors shared across the service and storage layers. The
// storage adapter surfaces these from inside the placement transaction so
// handlers can map them without unwrapping adapter internals.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrAddressNotFound = errors.New("address not found or does not belong to user")
	ErrOrderNotFound   = errors.New("order not found")
)

// StockIssue names one product whose cart quantity can no longer be
// satisfied by live stock.
type StockIssue struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"productName"`
	Requested float64 `json:"requested"`
	Available float64 `json:"available"`
}

func (si StockIssue) String() string {
	if si.Available <= 0 {
		return fmt.Sprintf("%s is out of stock", si.Name)
	}
	return fmt.Sprintf("%s only has %s in stock, but %s requested",
		si.Name, formatQty(si.Available), formatQty(si.Requested))
}

// StockConflictError aborts order placement with the full itemized list
// of shortfalls, so the client can render them without a second trip.
type StockConflictError struct {
	Issues []StockIssue
}

func (e *StockConflictError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, si := range e.Issues {
		parts[i] = si.String()
	}
	return "stock conflict: " + strings.Join(parts, "; ")
}

func formatQty(q float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", q), "0"), ".")
}

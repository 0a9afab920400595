package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/service"
	"github.com/freshmandi/grocery/internal/core/unit"
	"github.com/freshmandi/grocery/internal/port"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// respondError maps service errors onto HTTP statuses. Stock conflicts
// carry the itemized shortfall list so the client can render it without
// another round-trip.
func respondError(w http.ResponseWriter, err error) {
	var minErr *service.MinimumQuantityError
	if errors.As(err, &minErr) {
		writeError(w, http.StatusBadRequest, minErr.Error())
		return
	}

	var conflict *domain.StockConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success":     false,
			"error":       "Some items in your cart have stock issues",
			"stockIssues": conflict.Issues,
		})
		return
	}

	switch {
	case errors.Is(err, unit.ErrInvalidUnit),
		errors.Is(err, service.ErrZeroQuantity),
		errors.Is(err, service.ErrNegativeQuantity),
		errors.Is(err, service.ErrSignatureMismatch),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, port.ErrOptimisticLock):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

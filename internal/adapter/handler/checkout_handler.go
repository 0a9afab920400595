package handler

import (
	"encoding/json"
	"net/http"

	"github.com/freshmandi/grocery/internal/core/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Summary handles GET /api/checkout/{userId}.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	summary, err := h.checkout.Summary(r.Context(), userID, tierFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": summary})
}

// Validate handles POST /api/checkout/validate. The result is a
// structured issue list, not a single error: an empty list means
// checkout may proceed.
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"userId"`
		AddressID string `json:"addressId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.AddressID == "" {
		writeError(w, http.StatusBadRequest, "addressId is required")
		return
	}

	result, err := h.checkout.Validate(r.Context(), req.UserID, req.AddressID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

// Quote handles POST /api/checkout/delivery-fee.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	quote, err := h.checkout.Quote(r.Context(), req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": quote})
}

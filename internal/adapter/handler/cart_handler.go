package handler

import (
	"encoding/json"
	"net/http"

	"github.com/freshmandi/grocery/internal/core/service"
)

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartMutationRequest struct {
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
}

// GetCart handles GET /api/cart/{userId}. Stock and visibility
// adjustments made during the read ride alongside the cart as
// informational messages; they are not errors.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	cart, messages, err := h.carts.GetCart(r.Context(), userID, tierFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if messages == nil {
		messages = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"cart":        cart,
		"adjustments": messages,
	})
}

// AddItem handles POST /api/cart/add.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "userId and productId are required")
		return
	}

	result, err := h.carts.AddItem(r.Context(), req.UserID, tierFrom(r), req.ProductID, req.Quantity, req.Unit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"cart":              result.Cart,
		"effectiveQuantity": result.EffectiveQuantity,
		"message":           result.Message,
	})
}

// UpdateQuantity handles PUT /api/cart/update-quantity. Unlike AddItem
// the quantity is an absolute set: zero removes, negative is rejected.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "userId and productId are required")
		return
	}

	result, err := h.carts.UpdateQuantity(r.Context(), req.UserID, tierFrom(r), req.ProductID, req.Quantity, req.Unit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"cart":              result.Cart,
		"effectiveQuantity": result.EffectiveQuantity,
		"message":           result.Message,
	})
}

// RemoveItem handles DELETE /api/cart/item. Removing an absent item is
// fine; the current cart comes back either way.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "userId and productId are required")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), req.UserID, req.ProductID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cart": cart})
}

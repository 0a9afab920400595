package handler

import (
	"encoding/json"
	"net/http"

	"github.com/freshmandi/grocery/internal/core/domain"
	"github.com/freshmandi/grocery/internal/core/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create handles POST /api/orders: order placement for offline payment
// methods. The delivery OTP is returned once, here, for the proof-of-
// delivery flow.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string `json:"userId"`
		AddressID     string `json:"addressId"`
		PaymentMethod string `json:"paymentMethod"`
		RequestID     string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.AddressID == "" || req.PaymentMethod == "" || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "missing required order details")
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		UserID:    req.UserID,
		AddressID: req.AddressID,
		MethodKey: req.PaymentMethod,
		RequestID: req.RequestID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "Order placed successfully!",
		"order":       order,
		"deliveryOtp": order.DeliveryOTP,
	})
}

// CreateGatewayOrder handles POST /api/payment/order: pre-authorizes the
// cart total with the payment gateway for online methods.
func (h *OrderHandler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
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

	gatewayOrder, err := h.orders.CreateGatewayOrder(r.Context(), req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": gatewayOrder})
}

// VerifyPayment handles POST /api/payment/verify: the gateway callback
// that finalizes an online payment and places the order.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
		UserID            string `json:"userId"`
		AddressID         string `json:"addressId"`
		PaymentMethod     string `json:"paymentMethod"`
		RequestID         string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.AddressID == "" || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "missing required order details")
		return
	}

	order, err := h.orders.VerifyAndPlaceOrder(r.Context(), service.VerifyRequest{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
		UserID:           req.UserID,
		AddressID:        req.AddressID,
		MethodKey:        req.PaymentMethod,
		RequestID:        req.RequestID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order placed successfully!",
		"order":   order,
	})
}

// Get handles GET /api/orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

// ListByUser handles GET /api/orders/user/{userId}.
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	orders, err := h.orders.ListUserOrders(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

// UpdateStatus handles PUT /api/orders/{orderId}/status: appends to the
// order's progress history and moves the current status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.orders.AppendProgress(r.Context(), orderID, domain.OrderStatus(req.Status), req.Note); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// VerifyDelivery handles POST /api/orders/{orderId}/verify-delivery:
// proof of delivery via the OTP issued at placement.
func (h *OrderHandler) VerifyDelivery(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.VerifyDeliveryOTP(r.Context(), orderID, req.OTP); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Delivery confirmed"})
}

// HealthCheck reports liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

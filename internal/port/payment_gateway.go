package port

import "context"

// GatewayOrder is the gateway-side order created during pre-authorization
// of an online payment.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// PaymentGateway is the Razorpay-compatible collaborator for online
// payment methods.
type PaymentGateway interface {
	// CreateOrder pre-authorizes an amount (in paise) with the gateway.
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error)

	// VerifySignature checks the gateway callback's HMAC signature over
	// "orderID|paymentID".
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "Cash on Delivery"
	PaymentMethodCredit     PaymentMethod = "Credit"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodCard       PaymentMethod = "Credit Card"
	PaymentMethodNetBanking PaymentMethod = "Net Banking"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment records how an order is settled. Offline methods (COD, credit)
// get a record at placement time; gateway methods are recorded by the
// verified-callback flow.
type Payment struct {
	ID               string
	OrderID          string
	Method           PaymentMethod
	Status           PaymentStatus
	Amount           float64
	GatewayOrderID   string
	GatewayPaymentID string
	DueDate          *time.Time
	CreatedAt        time.Time
}

// MapPaymentMethod translates the keys the storefront sends into payment
// methods. Unknown keys fall back to cash on delivery.
func MapPaymentMethod(key string) PaymentMethod {
	switch key {
	case "credit":
		return PaymentMethodCredit
	case "card":
		return PaymentMethodCard
	case "gpay", "paytm", "hdfcUpi", "newUpi", "upi":
		return PaymentMethodUPI
	case "netbanking":
		return PaymentMethodNetBanking
	}
	return PaymentMethodCOD
}

// Offline reports whether the method settles outside the payment gateway
// (so the placement transaction itself creates the payment record).
func (m PaymentMethod) Offline() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCredit
}

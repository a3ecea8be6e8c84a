package domain

import "encoding/json"

// PaymentEvent is a payment outcome reported by the gateway, either through
// the webhook or the verification endpoint. The concrete type is one of
// PaymentSucceeded, PaymentFailed or UnhandledPaymentEvent.
type PaymentEvent interface {
	paymentEvent()
}

// PaymentSucceeded reports a completed charge.
type PaymentSucceeded struct {
	OrderID   string
	UserID    string
	Reference string
	Amount    int64 // minor units
}

// PaymentFailed reports a declined or failed charge.
type PaymentFailed struct {
	OrderID   string
	UserID    string
	Reference string
}

// UnhandledPaymentEvent carries any gateway event the storefront does not act on.
type UnhandledPaymentEvent struct {
	Type string
	Raw  json.RawMessage
}

func (PaymentSucceeded) paymentEvent()      {}
func (PaymentFailed) paymentEvent()         {}
func (UnhandledPaymentEvent) paymentEvent() {}

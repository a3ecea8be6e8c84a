package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a storefront order placed at checkout
type Order struct {
	ID               uuid.UUID
	UserID           string // empty for guest checkout
	Email            string
	CustomerName     string
	CustomerPhone    string
	ShippingAddress  map[string]interface{} // JSONB
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	ShippingCost     decimal.Decimal
	Total            decimal.Decimal
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is the snapshot of one cart line at order time
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Size      string
	Color     string
	ImageURL  string
	CreatedAt time.Time
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// PaymentUpdate is the status pair written when a payment outcome is reconciled
type PaymentUpdate struct {
	PaymentStatus PaymentStatus
	Status        OrderStatus
	Reference     string
}

// ProcessedPayment records a payment reference that has already been applied
// to an order, so replays from the webhook or verification endpoint are no-ops.
type ProcessedPayment struct {
	Reference   string
	OrderID     uuid.UUID
	Outcome     PaymentStatus
	Channel     string
	ProcessedAt time.Time
}

// Supersedes reports whether outcome may replace the one already recorded.
// A success arriving after a failure wins; nothing replaces a success.
func (p *ProcessedPayment) Supersedes(outcome PaymentStatus) bool {
	return p.Outcome == PaymentStatusFailed && outcome == PaymentStatusPaid
}

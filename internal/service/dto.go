package service

import (
	"github.com/shopspring/decimal"

	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/pricing"
)

// InitializePaymentRequest represents the checkout submission payload
type InitializePaymentRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Reference string          `json:"reference"`
	Items     []LineItemInput `json:"items" binding:"required,min=1,dive"`
	Shipping  ShippingInput   `json:"shipping" binding:"required"`
	Amount    int64           `json:"amount" binding:"min=0"` // client-side total in minor units
}

// LineItemInput is one cart line as the client priced it
type LineItemInput struct {
	ProductID string          `json:"product_id" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	ImageURL  string          `json:"image_url"`
}

type ShippingInput struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

// InitializePaymentResult is returned once the gateway accepted the transaction
type InitializePaymentResult struct {
	AuthorizationURL string        `json:"authorization_url"`
	AccessCode       string        `json:"access_code"`
	Reference        string        `json:"reference"`
	OrderID          string        `json:"order_id"`
	Quote            pricing.Quote `json:"quote"`
}

// VerifyPaymentResult reports the gateway's view of a transaction and what
// reconciliation did with it
type VerifyPaymentResult struct {
	Reference     string               `json:"reference"`
	Status        string               `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency,omitempty"`
	PaidAt        string               `json:"paid_at,omitempty"`
	OrderID       string               `json:"order_id,omitempty"`
	Outcome       Outcome              `json:"outcome"`
}

// QuoteRequest asks for a price breakdown of priced lines
type QuoteRequest struct {
	Items []QuoteLine `json:"items" binding:"dive"`
}

type QuoteLine struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

// StatusUpdateRequest represents a manual status change by an operator
type StatusUpdateRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason"`
}

func linesFromItems(items []LineItemInput) []pricing.Line {
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return lines
}

// QuoteLines prices quote lines for a caller whose sign-in state is known
func QuoteLines(items []QuoteLine, isAuthenticated bool) pricing.Quote {
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return pricing.Compute(pricing.Subtotal(lines), isAuthenticated, len(lines))
}

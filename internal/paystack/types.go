package paystack

import (
	"encoding/json"
)

// Transaction statuses reported by verify and webhook payloads
const (
	TransactionSuccess   = "success"
	TransactionFailed    = "failed"
	TransactionAbandoned = "abandoned"
)

// Webhook event names
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventTransferSuccess = "transfer.success"
)

// Metadata ties a gateway transaction back to the storefront order.
type Metadata struct {
	OrderID string `json:"orderId,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// InitializeTransactionRequest represents the body of POST /transaction/initialize
type InitializeTransactionRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"` // minor units
	Reference   string   `json:"reference,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// InitializeTransactionResponse represents the initialize answer
type InitializeTransactionResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Customer is the payer as the gateway knows them
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Transaction is the transaction object shared by verify and webhook payloads
type Transaction struct {
	ID              int64           `json:"id"`
	Domain          string          `json:"domain"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Message         string          `json:"message"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
	CreatedAt       string          `json:"created_at"`
	Channel         string          `json:"channel"`
	Currency        string          `json:"currency"`
	Metadata        json.RawMessage `json:"metadata"`
	Customer        Customer        `json:"customer"`
}

// ParseMetadata decodes the metadata object. The gateway sends an empty
// string or null when no metadata was attached; both yield zero Metadata.
func (t Transaction) ParseMetadata() Metadata {
	var md Metadata
	if len(t.Metadata) == 0 {
		return md
	}
	if err := json.Unmarshal(t.Metadata, &md); err != nil {
		// metadata may also arrive as a JSON-encoded string
		var encoded string
		if json.Unmarshal(t.Metadata, &encoded) == nil && encoded != "" {
			_ = json.Unmarshal([]byte(encoded), &md)
		}
	}
	return md
}

// VerifyTransactionResponse represents GET /transaction/verify/:reference
type VerifyTransactionResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

// WebhookPayload is the body the gateway posts to the webhook
type WebhookPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

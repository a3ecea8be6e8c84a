package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/exousia/storefront/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

var ErrInvalidSignature = errors.New("paystack: invalid webhook signature")

// Sign computes the signature the gateway sends for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the raw body in constant time.
func VerifySignature(body []byte, signature, secret string) error {
	if signature == "" || secret == "" {
		return ErrInvalidSignature
	}
	expected := Sign(body, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseWebhookEvent turns a verified webhook body into a payment event.
// The user id comes from the transaction metadata written at initialization.
func ParseWebhookEvent(body []byte) (domain.PaymentEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	switch payload.Event {
	case EventChargeSuccess, EventChargeFailed:
		var tx Transaction
		if err := json.Unmarshal(payload.Data, &tx); err != nil {
			return nil, fmt.Errorf("failed to parse %s data: %w", payload.Event, err)
		}
		md := tx.ParseMetadata()
		if payload.Event == EventChargeSuccess {
			return domain.PaymentSucceeded{
				OrderID:   md.OrderID,
				UserID:    md.UserID,
				Reference: tx.Reference,
				Amount:    tx.Amount,
			}, nil
		}
		return domain.PaymentFailed{
			OrderID:   md.OrderID,
			UserID:    md.UserID,
			Reference: tx.Reference,
		}, nil
	default:
		return domain.UnhandledPaymentEvent{Type: payload.Event, Raw: json.RawMessage(body)}, nil
	}
}

// EventFromVerification converts a verify answer into a payment event. The
// owning user is the caller's authenticated id, not the metadata's, so a
// reference alone cannot move someone else's order.
func EventFromVerification(resp *VerifyTransactionResponse, userID string) domain.PaymentEvent {
	if resp == nil {
		return domain.UnhandledPaymentEvent{Type: "verify.empty"}
	}
	md := resp.Data.ParseMetadata()

	if !resp.Status {
		return domain.UnhandledPaymentEvent{Type: "verify." + resp.Data.Status}
	}
	switch resp.Data.Status {
	case TransactionSuccess:
		return domain.PaymentSucceeded{
			OrderID:   md.OrderID,
			UserID:    userID,
			Reference: resp.Data.Reference,
			Amount:    resp.Data.Amount,
		}
	case TransactionFailed:
		return domain.PaymentFailed{
			OrderID:   md.OrderID,
			UserID:    userID,
			Reference: resp.Data.Reference,
		}
	default:
		return domain.UnhandledPaymentEvent{Type: "verify." + resp.Data.Status}
	}
}

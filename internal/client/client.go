// Package client talks to the storefront API on behalf of the shop client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/checkout"
	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/service"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new storefront API client
func NewClient(cfg *config.ShopConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.APIURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// APIError is a non-2xx answer from the storefront API
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("storefront API error: status %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("storefront API error: status %d: %s", e.StatusCode, e.Message)
}

// InitializePayment submits the cart and shipping details and returns the
// gateway redirect
func (c *Client) InitializePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.Authorization, error) {
	body := service.InitializePaymentRequest{
		Email:     req.Email,
		Reference: req.Reference,
		Items:     make([]service.LineItemInput, 0, len(req.Lines)),
		Shipping: service.ShippingInput{
			FirstName:  req.Shipping.FirstName,
			LastName:   req.Shipping.LastName,
			Address:    req.Shipping.Address,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
			Phone:      req.Shipping.Phone,
		},
		Amount: req.Amount,
	}
	for _, line := range req.Lines {
		body.Items = append(body.Items, service.LineItemInput{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
			ImageURL:  line.ImageRef,
		})
	}

	var resp service.InitializePaymentResult
	if err := c.do(ctx, http.MethodPost, "/v1/payment/initialize", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Quote.Total.IsZero() && resp.Quote.AmountMinorUnits() != req.Amount {
		c.logger.Warn("Server total differs from cart total",
			zap.Int64("cart_amount", req.Amount),
			zap.Int64("server_amount", resp.Quote.AmountMinorUnits()),
		)
	}

	return &checkout.Authorization{
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Reference:        resp.Reference,
		OrderID:          resp.OrderID,
	}, nil
}

// VerifyPayment asks the API to verify and reconcile reference
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*checkout.PaymentResult, error) {
	var resp service.VerifyPaymentResult
	path := "/v1/payment/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &checkout.PaymentResult{
		Reference: resp.Reference,
		Status:    resp.Status,
		Paid:      resp.PaymentStatus == domain.PaymentStatusPaid,
		Applied:   resp.Outcome == service.OutcomeApplied,
	}, nil
}

// Order is the tracking view of a placed order
type Order struct {
	ID            string                 `json:"id"`
	Status        domain.OrderStatus     `json:"status"`
	PaymentStatus domain.PaymentStatus   `json:"payment_status"`
	Reference     string                 `json:"payment_reference"`
	Total         string                 `json:"total"`
	Address       map[string]interface{} `json:"shipping_address"`
	Items         []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
		Size     string `json:"size"`
		Color    string `json:"color"`
	} `json:"items"`
	CreatedAt string `json:"created_at"`
}

// GetOrder fetches an order. Guests identify themselves with the order email.
func (c *Client) GetOrder(ctx context.Context, orderID, email string) (*Order, error) {
	path := "/v1/orders/" + url.PathEscape(orderID)
	if email != "" {
		path += "?" + url.Values{"email": {email}}.Encode()
	}
	var order Order
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

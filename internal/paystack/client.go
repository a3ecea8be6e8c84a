package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/config"
)

const verifyAttempts = 2

type Client struct {
	baseURL      string
	secretKey    string
	httpClient   *http.Client
	logger       *zap.Logger
	retryBackOff func() backoff.BackOff
}

// NewClient creates a new Paystack API client
func NewClient(cfg config.PaystackConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		retryBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			return b
		},
	}
}

// APIError is a non-2xx answer from the gateway
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack API error: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// InitializeTransaction creates a hosted checkout for the given amount.
// It is not retried: a second initialize with the same reference is rejected
// by the gateway.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeTransactionRequest) (*InitializeTransactionResponse, error) {
	var resp InitializeTransactionResponse
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to initialize transaction: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("failed to initialize transaction: %s", resp.Message)
	}
	return &resp, nil
}

// VerifyTransaction looks up the outcome of a transaction. Transport errors
// and 5xx answers are retried once with backoff.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyTransactionResponse, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("reference is required")
	}
	path := "/transaction/verify/" + url.PathEscape(reference)

	operation := func() (*VerifyTransactionResponse, error) {
		var resp VerifyTransactionResponse
		err := c.do(ctx, http.MethodGet, path, nil, &resp)
		if err == nil {
			return &resp, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.retryBackOff()),
		backoff.WithMaxTries(verifyAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("Retrying transaction verification",
				zap.String("reference", reference),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}
	return resp, nil
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
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

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
			Message string `json:"message"`
		}
		message := string(respBody)
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

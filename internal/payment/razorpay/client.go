package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client talks to the Razorpay orders API and verifies callback
// signatures. It holds the key pair and the shared webhook secret.
type Client struct {
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	httpClient    *http.Client
	logger        *zap.Logger
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func New(keyID, keySecret, webhookSecret string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:       defaultBaseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KeyID is the publishable half of the key pair, handed to the client
// UI so it can open the payment widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// RemoteOrder is the provider's order record as echoed back to us.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

// CreateOrder mints a remote order for amountPaise. The receipt is the
// local order id and is the correlation key a later webhook carries
// back.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*RemoteOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:         amountPaise,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("razorpay: order creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", receipt),
		)
		return nil, &domain.GatewayError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var remote RemoteOrder
	if err := json.Unmarshal(respBody, &remote); err != nil {
		return nil, fmt.Errorf("razorpay: decode response: %w", err)
	}
	c.logger.Info("razorpay: order created",
		zap.String("remote_order_id", remote.ID),
		zap.String("receipt", receipt),
		zap.Int64("amount_paise", amountPaise),
	)
	return &remote, nil
}

// Package gateway is the client for the payment-gateway backend: it
// creates gateway sessions bound to an internal order id and amount,
// and forwards signed payment confirmations for server-side
// verification. Signature checking itself happens on the backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
)

// Client talks to the payment backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a gateway Client bound to baseURL. httpClient may
// be nil, in which case http.DefaultClient is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type createSessionRequest struct {
	Amount          int64  `json:"amount"`
	InternalOrderID string `json:"internalOrderId"`
}

type createSessionEnvelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateSession opens a gateway session keyed to the internal order id
// and the exact total amount. The returned OrderID is the gateway's
// session identifier, not ours.
func (c *Client) CreateSession(ctx context.Context, amount int64, internalOrderID string) (checkout.GatewaySession, error) {
	env, err := c.post(ctx, "/api/payment/order", createSessionRequest{
		Amount:          amount,
		InternalOrderID: internalOrderID,
	})
	if err != nil {
		return checkout.GatewaySession{}, err
	}
	return checkout.GatewaySession{
		OrderID:  env.OrderID,
		Amount:   env.Amount,
		Currency: env.Currency,
	}, nil
}

type verifyRequest struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	OrderID        string `json:"orderId"`
}

// Verify forwards the gateway's signed confirmation plus our order id
// to the verification endpoint. A nil return means the backend accepted
// the signature and marked the order paid.
func (c *Client) Verify(ctx context.Context, conf checkout.PaymentConfirmation, internalOrderID string) error {
	_, err := c.post(ctx, "/api/payment/verify", verifyRequest{
		GatewayOrderID: conf.GatewayOrderID,
		PaymentID:      conf.PaymentID,
		Signature:      conf.Signature,
		OrderID:        internalOrderID,
	})
	return err
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*createSessionEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payment backend: unexpected status %d", resp.StatusCode)
	}

	var env createSessionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("payment backend: %s", env.Message)
	}
	return &env, nil
}

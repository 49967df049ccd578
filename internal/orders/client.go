// Package orders is the client for the order-creation backend. Order
// records are owned by that backend; this layer only submits drafts
// and carries back the authoritative order identifier.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
)

// Client posts order drafts to the order backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns an orders Client bound to baseURL. httpClient may
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

type createOrderEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ID string `json:"_id"`
	} `json:"data"`
}

// CreateOrder submits the draft and returns the backend's order id.
// A transport-level 2xx with {success:false} in the body is a failure
// carrying the backend's message.
func (c *Client) CreateOrder(ctx context.Context, draft checkout.OrderDraft) (string, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("marshal order draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("create order: unexpected status %d", resp.StatusCode)
	}

	var env createOrderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if !env.Success {
		return "", fmt.Errorf("order backend: %s", env.Message)
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("order backend: response missing order id")
	}
	return env.Data.ID, nil
}

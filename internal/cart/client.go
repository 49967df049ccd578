package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client fetches cart contents from the cart backend.
// The backend may report failure inside a 200 response via
// {success:false, message}, so the envelope is checked explicitly
// rather than relying on the transport status alone.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a cart Client bound to baseURL. httpClient may be
// nil, in which case http.DefaultClient is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type cartEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Items []Line `json:"items"`
	} `json:"data"`
}

// GetCart fetches the current cart lines for a session.
func (c *Client) GetCart(ctx context.Context, sessionID string) ([]Line, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("build cart request: %w", err)
	}
	req.Header.Set("X-Session-Id", sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch cart: unexpected status %d", resp.StatusCode)
	}

	var env cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("cart backend: %s", env.Message)
	}
	return env.Data.Items, nil
}

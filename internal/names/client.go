// Package names resolves wallet addresses to their primary display name
// through the name service HTTP API.
package names

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one reverse lookup.
const DefaultTimeout = 10 * time.Second

// Client queries the reverse-resolution endpoint. An address with no
// primary name resolves to the empty string, which is a normal outcome.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient builds a name service client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseJSON struct {
	Name string `json:"name"`
}

// ReverseName resolves addr to its primary name. A 404 means the address
// has no name set; that is an empty result, not an error.
func (c *Client) ReverseName(ctx context.Context, addr string) (string, error) {
	reqURL := c.baseURL + "/reverse/" + url.PathEscape(addr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("reverse lookup status %d: %s", resp.StatusCode, body)
	}

	var wire reverseJSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", fmt.Errorf("unmarshal reverse lookup: %w", err)
	}
	c.logger.Debug("reverse name resolved",
		zap.String("address", addr),
		zap.String("name", wire.Name))
	return wire.Name, nil
}

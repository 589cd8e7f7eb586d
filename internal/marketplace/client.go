// Package marketplace implements the HTTP client for the external paginated
// activity feed. Single-page fetches retry with exponential backoff and
// shrink the requested page size on timeout; retry exhaustion downgrades to
// an empty page with an explicit incomplete signal instead of an error.
package marketplace

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"ens-market-context/internal/observability"
)

// Default client configuration.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 1 * time.Second
	DefaultBackoffCap  = 5 * time.Second
	DefaultPageSize    = 20
)

// Client provides access to the marketplace activity API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics

	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry count and backoff schedule.
func WithRetries(max int, base, cap time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.backoffBase = base
		c.backoffCap = cap
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new activity API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:      zap.NewNop(),
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
		backoffCap:  DefaultBackoffCap,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ens-market-context/internal/domain"
)

// retryState is the explicit state of one fetch attempt sequence. Keeping it
// as a record rather than recursing keeps the schedule bounded and testable.
type retryState struct {
	attempt int
	limit   int
}

// FetchPage fetches one page of the activity feed. Transport failures are
// retried with exponential backoff; a timeout on the first failure halves the
// requested page size for the remaining attempts. When retries are exhausted
// the page comes back empty with Incomplete=true and a nil error; transport
// errors never escape the fetcher. The only error returned is an invalid
// request.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	if err := req.Scope.Validate(); err != nil {
		return Page{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	state := retryState{limit: limit}

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		}
	}()

	for {
		page, err := c.fetchOnce(ctx, req, state.limit)
		if err == nil {
			if c.metrics != nil {
				c.metrics.PagesFetched.Inc()
			}
			return page, nil
		}

		var apiErr *apiError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			// Client-side rejection is not transient; give up immediately
			// but still hand back the documented incomplete shape.
			c.logger.Error("activity fetch rejected by provider",
				zap.Int("status", apiErr.StatusCode),
				zap.Error(err))
			return c.giveUp()
		}

		if state.attempt == 0 && isTimeout(err) && state.limit > 1 {
			state.limit = state.limit / 2
			c.logger.Warn("activity fetch timed out, shrinking page size",
				zap.Int("limit", state.limit))
		}

		state.attempt++
		if state.attempt > c.maxRetries {
			c.logger.Warn("activity fetch exhausted retries",
				zap.Int("attempts", state.attempt),
				zap.Error(err))
			return c.giveUp()
		}

		if c.metrics != nil {
			c.metrics.FetchRetries.Inc()
		}

		delay := backoffDelay(c.backoffBase, c.backoffCap, state.attempt)
		c.logger.Debug("retrying activity fetch",
			zap.Int("attempt", state.attempt),
			zap.Int("limit", state.limit),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return c.giveUp()
		case <-time.After(delay):
		}
	}
}

// giveUp returns the documented empty+incomplete page.
func (c *Client) giveUp() (Page, error) {
	if c.metrics != nil {
		c.metrics.FetchGiveUps.Inc()
	}
	return Page{Incomplete: true}, nil
}

// backoffDelay computes base·2^(attempt-1), capped.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

// isTimeout classifies an error as a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// fetchOnce performs a single page request without retries.
func (c *Client) fetchOnce(ctx context.Context, req PageRequest, limit int) (Page, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if req.Continuation != "" {
		query.Set("continuation", req.Continuation)
	}
	for _, t := range req.Types {
		query.Add("types", string(t))
	}

	var path string
	switch {
	case req.Scope.Wallet != "":
		path = "/users/activity"
		query.Set("user", req.Scope.Wallet)
	case req.Scope.TokenID != "":
		path = "/tokens/activity"
		query.Set("token", req.Scope.Contract+":"+req.Scope.TokenID)
	default:
		path = "/collections/activity"
		query.Set("collection", req.Scope.Contract)
	}

	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return Page{}, err
	}

	var wire pageJSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return Page{}, fmt.Errorf("unmarshal activity page: %w", err)
	}

	page := Page{Continuation: wire.Continuation}
	if len(wire.Activities) > 0 {
		page.Activities = make([]domain.Activity, 0, len(wire.Activities))
		for _, a := range wire.Activities {
			page.Activities = append(page.Activities, a.toDomain())
		}
	}
	return page, nil
}

// doRequest performs one GET against the provider.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

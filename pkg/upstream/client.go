// Package upstream talks to the league data provider: REST schedule and
// game-day endpoints plus the DTOs they return. All fetches go through one
// shared rate limiter and the shared response cache.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/version"
)

// Client wraps the provider's REST endpoints.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	shlURL     string
	haURL      string
	logger     *slog.Logger
}

// NewClient builds a client for the two league base URLs.
func NewClient(shlURL, haURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		shlURL:     shlURL,
		haURL:      haURL,
		logger:     slog.With("component", "upstream"),
	}
}

// Get fetches url, honoring the client-wide rate limit.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.Full())
	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer rsp.Body.Close()
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s: status %d", url, rsp.StatusCode)
	}
	c.logger.Info("call", "url", url, "elapsed", time.Since(start).Round(time.Millisecond))
	return body, nil
}

// ThrottleCall fetches url at most once per maxAge and reads the shared
// cache otherwise. A failed fetch or parse caches a zero placeholder so a
// broken endpoint is not hammered; the placeholder is what subsequent calls
// within maxAge will see. ok is false when this call produced the
// placeholder.
func ThrottleCall[T any](ctx context.Context, client *Client, cache *store.Collection[T], url string, maxAge time.Duration) (T, bool) {
	if !cache.IsStale(url, maxAge) {
		return cache.Read(url)
	}
	var value T
	body, err := client.Get(ctx, url)
	if err != nil {
		client.logger.Warn("call failed, caching placeholder", "url", url, "err", err)
		_ = cache.Write(url, value)
		return value, false
	}
	if err := json.Unmarshal(body, &value); err != nil {
		client.logger.Warn("parse failed, caching placeholder", "url", url, "err", err)
		_ = cache.Write(url, value)
		return value, false
	}
	if err := cache.Write(url, value); err != nil {
		client.logger.Warn("cache write failed", "url", url, "err", err)
	}
	return value, true
}

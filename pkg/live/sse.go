// Package live runs the per-game listeners: one task per potentially-live
// game, consuming the provider's feed and translating it into bus messages.
package live

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pucklabs/rinkside/pkg/upstream"
	"github.com/pucklabs/rinkside/pkg/version"
)

// SseClient subscribes to the provider's per-game event stream.
type SseClient struct {
	baseURL    string
	sleep      time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSseClient builds a stream client for the SSE base URL. sleep is the
// pause between frame reads so one busy game cannot starve the rest.
func NewSseClient(baseURL string, sleep time.Duration) *SseClient {
	return &SseClient{
		baseURL: baseURL,
		sleep:   sleep,
		// streams are long-lived, the client timeout stays off
		httpClient: &http.Client{},
		logger:     slog.With("component", "sse"),
	}
}

// Listen streams decoded frames for gameUUID until ctx is done. Stream
// errors reconnect with exponential backoff; the channel closes only when
// ctx is cancelled.
func (c *SseClient) Listen(ctx context.Context, gameUUID string) <-chan upstream.SseEvent {
	frames := make(chan upstream.SseEvent, 100)
	go func() {
		defer close(frames)
		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = 30 * time.Second
		bo.MaxElapsedTime = 0
		for {
			err := c.stream(ctx, gameUUID, frames, bo)
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			c.logger.Info("stream lost, reconnecting", "game", gameUUID, "wait", wait, "err", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames
}

// stream holds one connection open, forwarding each data line as a frame.
// The backoff resets once a frame arrives so a stable stream that later
// drops reconnects promptly.
func (c *SseClient) stream(ctx context.Context, gameUUID string, frames chan<- upstream.SseEvent, bo *backoff.ExponentialBackOff) error {
	url := fmt.Sprintf("%s?gameUuid=%s", c.baseURL, gameUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", version.Full())

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect %s: status %d", url, rsp.StatusCode)
	}
	c.logger.Info("stream open", "game", gameUUID)

	scanner := bufio.NewScanner(rsp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var frame upstream.SseEvent
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			c.logger.Warn("bad frame", "game", gameUUID, "err", err)
			continue
		}
		bo.Reset()
		select {
		case frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
		if c.sleep > 0 {
			select {
			case <-time.After(c.sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by provider")
}

package apns

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/net/http2"
)

// ErrBadDeviceToken marks a push rejected because the device token is no
// longer valid. Callers prune the token on this error.
var ErrBadDeviceToken = errors.New("bad device token")

const tokenMaxAge = 55 * time.Minute

// Client talks to the APNs provider API over HTTP/2 with prior knowledge,
// authenticating with short-lived ES256 provider tokens.
type Client struct {
	host    string
	teamID  string
	keyID   string
	keyPath string

	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	token     string
	tokenFrom time.Time
}

// NewClient builds a client for the given APNs host. The signing key at
// keyPath is read lazily on the first push.
func NewClient(host, teamID, keyID, keyPath string) *Client {
	transport := &http2.Transport{}
	if strings.HasPrefix(host, "http://") {
		// plaintext h2c, used against local test servers
		transport.AllowHTTP = true
		transport.DialTLSContext = func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		}
	}
	return &Client{
		host:       strings.TrimSuffix(host, "/"),
		teamID:     teamID,
		keyID:      keyID,
		keyPath:    keyPath,
		httpClient: &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "apns"),
	}
}

type apnsResponse struct {
	Reason string `json:"reason"`
}

// Push sends one notification to a device or live-activity token.
func (c *Client) Push(ctx context.Context, push Push, deviceToken string) error {
	bearer, err := c.bearerToken()
	if err != nil {
		return fmt.Errorf("sign provider token: %w", err)
	}

	raw, err := json.Marshal(push.Body)
	if err != nil {
		return fmt.Errorf("encode push body: %w", err)
	}

	url := fmt.Sprintf("%s/3/device/%s", c.host, deviceToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("authorization", "bearer "+bearer)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("apns-push-type", string(push.Header.PushType))
	req.Header.Set("apns-priority", strconv.Itoa(push.Header.Priority))
	req.Header.Set("apns-topic", push.Header.Topic)
	if push.Header.CollapseID != "" {
		req.Header.Set("apns-collapse-id", push.Header.CollapseID)
	}
	if push.Header.Expiration != 0 {
		req.Header.Set("apns-expiration", strconv.FormatInt(push.Header.Expiration, 10))
	}

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apns request: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode == http.StatusOK {
		c.logger.Debug("pushed notification", "push_type", push.Header.PushType, "status", rsp.StatusCode)
		return nil
	}

	var body apnsResponse
	if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
		return fmt.Errorf("apns returned %d", rsp.StatusCode)
	}
	c.logger.Info("push rejected", "status", rsp.StatusCode, "reason", body.Reason)
	switch body.Reason {
	case "BadDeviceToken", "Unregistered":
		return ErrBadDeviceToken
	default:
		return fmt.Errorf("apns returned %d: %s", rsp.StatusCode, body.Reason)
	}
}

// bearerToken returns a cached provider token, re-signing it once the
// previous one is older than 55 minutes. Apple rejects tokens past the
// hour, and refreshing more often than every 20 minutes is throttled.
func (c *Client) bearerToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Since(c.tokenFrom) < tokenMaxAge {
		return c.token, nil
	}

	pemBytes, err := os.ReadFile(c.keyPath)
	if err != nil {
		return "", fmt.Errorf("read signing key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return "", fmt.Errorf("parse signing key: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": c.teamID,
		"iat": time.Now().Unix(),
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", err
	}
	c.token = signed
	c.tokenFrom = time.Now()
	c.logger.Debug("created provider token", "key_id", c.keyID)
	return signed, nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultExpoBaseURL is the Expo push API root.
const DefaultExpoBaseURL = "https://exp.host/--/api/v2"

// ExpoClient talks to the Expo push service: batched sends returning ticket
// ids, and receipt lookups keyed by those ids. Requests go through a token
// bucket limiter so bursts of reminder jobs stay under the provider rate.
type ExpoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewExpoClient creates a rate-limited Expo push client. accessToken may be
// empty for unauthenticated projects.
func NewExpoClient(baseURL, accessToken string, requestsPerMinute int, logger *slog.Logger) *ExpoClient {
	if baseURL == "" {
		baseURL = DefaultExpoBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 600
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &ExpoClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		accessToken: accessToken,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		logger:      logger,
	}
}

// ValidateToken reports whether token has the provider's push token shape:
// a known prefix wrapping non-empty content. Malformed tokens are dropped
// before any provider call.
func ValidateToken(token string) bool {
	body, ok := strings.CutPrefix(token, "ExponentPushToken[")
	if !ok {
		body, ok = strings.CutPrefix(token, "ExpoPushToken[")
	}
	if !ok {
		return false
	}
	body, ok = strings.CutSuffix(body, "]")
	return ok && body != ""
}

// Send posts one batch of messages and returns the provider tickets, one per
// message, positionally.
func (c *ExpoClient) Send(ctx context.Context, msgs []PushMessage) ([]Ticket, error) {
	var result struct {
		Data []Ticket `json:"data"`
	}
	if err := c.post(ctx, "/push/send", msgs, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Receipts fetches delivery receipts for previously returned ticket ids.
// Receipts the provider has not produced yet are simply absent from the map.
func (c *ExpoClient) Receipts(ctx context.Context, ids []string) (map[string]Receipt, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var result struct {
		Data map[string]Receipt `json:"data"`
	}
	if err := c.post(ctx, "/push/getReceipts", body, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// post performs a rate-limited JSON POST to an Expo endpoint.
func (c *ExpoClient) post(ctx context.Context, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo %s returned %d: %s", path, resp.StatusCode, truncate(raw, 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

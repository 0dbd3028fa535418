package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// requestIDHeader matches the header the server echoes back.
const requestIDHeader = "X-Request-ID"

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Get performs a GET request tagged with a fresh request ID. An empty state
// leaves the query string off.
func (c *HTTPClient) Get(ctx context.Context, path, state string) (*http.Response, error) {
	target := c.baseURL + path
	if state != "" {
		target += "?" + url.Values{"state": {state}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	return c.client.Do(req)
}

// getJSON fetches path and decodes a 200 response into T.
func getJSON[T any](ctx context.Context, c *HTTPClient, path, state string) (T, error) {
	var out T
	resp, err := c.Get(ctx, path, state)
	if err != nil {
		return out, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("%w: %s answered %d", ErrUnexpected, path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrUnexpected, path, err)
	}
	return out, nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rhinoview/internal/logging"
)

// ErrServiceUnavailable wraps transport failures and 5xx answers. Callers
// can retry after it.
var ErrServiceUnavailable = errors.New("compute: service unavailable")

// APIError is a non-retryable rejection (4xx) from the compute server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("compute: server rejected request: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client is a RhinoCompute HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithAPIKey sets the RhinoComputeKey header value.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the server root, always with a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// EvaluateRaw posts req to /grasshopper and returns the raw JSON answer.
func (c *Client) EvaluateRaw(ctx context.Context, req *EvaluationRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("compute: encode request: %w", err)
	}
	start := time.Now()
	data, err := c.do(ctx, http.MethodPost, "grasshopper", body)
	c.logger.Debug("evaluate",
		"url", c.baseURL+"grasshopper",
		"trees", len(req.Values),
		"bytes", len(data),
		"duration", time.Since(start),
		"err", err,
	)
	return data, err
}

// Evaluate posts req and decodes the response.
func (c *Client) Evaluate(ctx context.Context, req *EvaluationRequest) (*Response, error) {
	data, err := c.EvaluateRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := ParseResponse(data)
	if err != nil {
		return nil, err
	}
	for _, w := range resp.Warnings {
		c.logger.Warn("compute warning", "message", w)
	}
	for _, e := range resp.Errors {
		c.logger.Error("compute error", "message", e)
	}
	return resp, nil
}

// Healthy probes GET /healthcheck.
func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "healthcheck", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("compute: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "rhinoview")
	if c.apiKey != "" {
		req.Header.Set("RhinoComputeKey", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrServiceUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, resp.Status)
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

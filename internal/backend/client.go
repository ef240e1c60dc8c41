// Package backend is the REST client for the retail inventory backend's
// auth and user endpoints.
//
// Every failure is normalized into an *errors.ConsoleError: no response at
// all becomes NET-001, an abandoned request NET-002, and a non-2xx answer
// API-001 carrying the server's message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/log"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

// Client is the backend API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	logger *log.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new backend API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken stops sending an Authorization header.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping reports whether the backend answers at all. Any HTTP status counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "", nil)
	if err != nil && !errors.IsAPI(err) {
		return err
	}
	return nil
}

// doRequest performs an HTTP request with authentication and returns the
// body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarshal, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to create request", err).
			WithSuggestion("Check the configured API URL")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || stderrors.Is(err, context.Canceled) {
			return nil, errors.NewCanceledError(err)
		}
		c.logger.DebugContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return parseResponse(resp)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseResponse reads the body and turns non-success statuses into API errors.
func parseResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIResponse, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(data, &errResp); err == nil {
			if errResp.Message != "" {
				return nil, errors.NewAPIError(resp.StatusCode, errResp.Message)
			}
			if errResp.Error != "" {
				return nil, errors.NewAPIError(resp.StatusCode, errResp.Error)
			}
		}
		return nil, errors.NewAPIError(resp.StatusCode, "")
	}

	return data, nil
}

// decodeInto unmarshals a successful response body.
func decodeInto(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(errors.ErrCodeAPIResponse, fmt.Sprintf("failed to decode response (%d bytes)", len(data)), err)
	}
	return nil
}

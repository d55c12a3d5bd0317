// Package snow is the HTTP boundary to the ServiceNow Table API. It owns
// request construction, auth header injection, and status checking; it knows
// nothing about incidents.
package snow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/snowkit-io/snowkit/internal/auth"
	"github.com/snowkit-io/snowkit/internal/calllog"
)

const defaultTimeout = 30 * time.Second

// StatusError is returned when the instance answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("servicenow: status %d: %s", e.Status, e.Body)
}

// Client issues requests against a ServiceNow REST base URL
// (e.g. https://instance.service-now.com/api/now/v1).
type Client struct {
	apiURL string
	auth   auth.Manager
	client *http.Client
	logger *slog.Logger
	calls  *calllog.Buffer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCallLog records every outbound call into the given buffer.
func WithCallLog(b *calllog.Buffer) Option {
	return func(c *Client) { c.calls = b }
}

// New creates a client for the given API base URL.
func New(apiURL string, mgr auth.Manager, opts ...Option) *Client {
	c := &Client{
		apiURL: apiURL,
		auth:   mgr,
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET against path with the given query parameters and decodes
// the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.apiURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("servicenow: marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("servicenow: create request: %w", err)
	}
	for k, v := range c.auth.Headers() {
		req.Header.Set(k, v)
	}

	rec := calllog.Record{
		Time:      time.Now(),
		RequestID: requestIDFromContext(ctx),
		Method:    method,
		Path:      path,
	}
	if rec.RequestID == "" {
		rec.RequestID = uuid.NewString()
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	rec.Duration = time.Since(start).Milliseconds()
	if err != nil {
		rec.Error = err.Error()
		c.record(rec)
		return fmt.Errorf("servicenow: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	rec.Status = resp.StatusCode
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		rec.Error = err.Error()
		c.record(rec)
		return fmt.Errorf("servicenow: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(rec)
		return &StatusError{Status: resp.StatusCode, Body: snippet(respBody)}
	}
	c.record(rec)

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("servicenow: unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) record(rec calllog.Record) {
	if c.calls != nil {
		c.calls.Add(rec)
	}
	if rec.Error != "" {
		c.logger.Error("servicenow call failed",
			"request_id", rec.RequestID, "method", rec.Method, "path", rec.Path, "error", rec.Error)
		return
	}
	c.logger.Debug("servicenow call",
		"request_id", rec.RequestID, "method", rec.Method, "path", rec.Path,
		"status", rec.Status, "duration_ms", rec.Duration)
}

// snippet truncates an error body for messages.
func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

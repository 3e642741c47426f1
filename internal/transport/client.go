package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is used when no http.Client is supplied.
const DefaultTimeout = 45 * time.Second

// MaxBodySize bounds how much of a response body is read (image downloads included).
const MaxBodySize = 50 * 1024 * 1024

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-2xx status: %d", e.Code)
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client wraps an http.Client with request logging.
type Client struct {
	http   *http.Client
	logger *slog.Logger
	prefix string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// WithLogPrefix sets the prefix of log messages (e.g. "vision" gives "vision.http.request").
func WithLogPrefix(prefix string) Option {
	return func(cl *Client) {
		cl.prefix = prefix
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
		prefix: "api",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient returns the underlying http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// PostJSON posts body as JSON to url and decodes the response into out (when non-nil).
func (c *Client) PostJSON(ctx context.Context, url string, body any, headers map[string]string, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(bs), len(bs), headers)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, url, nil, 0, headers)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// GetBytes issues a GET and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil, 0, headers)
}

func decode(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, size int, headers map[string]string) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug(c.prefix+".http.request",
		"req_id", reqID,
		"method", method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"content_length", size,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(c.prefix+".http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn(c.prefix+".http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug(c.prefix+".http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, &StatusError{Code: resp.StatusCode, Body: excerpt(raw)}
	}
	return raw, nil
}

func excerpt(raw []byte) string {
	const limit = 256
	s := string(bytes.TrimSpace(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

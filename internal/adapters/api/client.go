package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("church backend is unavailable")

// Error is a non-2xx response. Body is the raw server payload so the operator
// can see field-level messages exactly as the backend sent them.
type Error struct {
	Op         string
	StatusCode int
	Body       []byte
}

// Error implements error.
func (e *Error) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// HTTPStatus returns the backend status code.
func (e *Error) HTTPStatus() int {
	return e.StatusCode
}

// RawBody returns the backend response body verbatim.
func (e *Error) RawBody() []byte {
	return e.Body
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// TokenSource supplies the bearer token attached to each call.
type TokenSource interface {
	AccessToken() string
}

// Config configures a Client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	HTTPClient      *http.Client
}

// Client talks to the church REST backend.
// A Client is safe for concurrent use; WithTokens derives per-operator clients
// that share the transport and circuit breaker.
type Client struct {
	base         *url.URL
	http         *http.Client
	breaker      *gobreaker.CircuitBreaker
	tokens       TokenSource
	newRequestID func() string
}

// New builds a client for cfg.BaseURL.
// PRE: cfg.BaseURL is an absolute http(s) URL
// POST: Returns a client with no token source attached
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https, got %q", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:         base,
		http:         hc,
		breaker:      newBreaker("church-backend", cfg.BreakerFailures, timeout),
		newRequestID: func() string { return uuid.New().String() },
	}, nil
}

// WithTokens returns a client that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func newBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	if failures == 0 {
		failures = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     2 * timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 4xx answers mean the backend is healthy and said no.
		IsSuccessful: func(err error) bool {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("backend_event", "event", "breaker_state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// body is an encoded request payload.
type body struct {
	contentType string
	data        []byte
}

func jsonBody(v any) (*body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &body{contentType: "application/json", data: data}, nil
}

// do runs one call through the breaker and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in *body, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, op, method, path, query, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	observe(op, err, time.Since(start))
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, in *body, out any) error {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if in != nil {
		reader = bytes.NewReader(in.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.newRequestID())
	if in != nil {
		req.Header.Set("Content-Type", in.contentType)
	}
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Debug("backend_event", "event", "call_rejected", "op", op, "status", resp.StatusCode)
		return &Error{Op: op, StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

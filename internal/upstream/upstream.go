// Package upstream holds the outbound HTTP plumbing shared by the search,
// fetch and summarization clients, and the error types that classify
// their failures.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Service names used in errors and logs
const (
	SearchEngine = "searxng"
	Inference    = "ollama"
	TargetSite   = "target"
)

// HTTPError is returned when an upstream answers with a non-2xx status.
type HTTPError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// ConnectError is returned when an upstream cannot be reached at all:
// DNS failure, refused connection, TLS failure or timeout.
type ConnectError struct {
	Service string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.Service, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *ConnectError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// DecodeError is returned when a 2xx body is not the expected JSON.
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client wraps an http.Client for one upstream service.
type Client struct {
	Service string
	HTTP    *http.Client
	// MaxBodyBytes caps how much of a response body is read, 0 means unlimited.
	MaxBodyBytes int64
}

// NewClient returns a Client whose requests are bounded by timeout.
func NewClient(service string, timeout time.Duration) *Client {
	return &Client{
		Service: service,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Do sends req and returns the response body. Transport failures become
// *ConnectError and non-2xx statuses become *HTTPError.
func (c *Client) Do(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, &ConnectError{Service: c.Service, Err: err}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, c.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp, &ConnectError{Service: c.Service, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resp, &HTTPError{
			Service:    c.Service,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
		}
	}
	return body, resp, nil
}

// DoJSON sends req and decodes a successful body into out.
func (c *Client) DoJSON(req *http.Request, out any) error {
	body, _, err := c.Do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Service: c.Service, Err: err}
	}
	return nil
}

// WithTimeout derives a bounded context from ctx's values only, so that an
// upstream call runs to completion or timeout regardless of the caller.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

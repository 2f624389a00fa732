// Package httpapi is the JSON-over-HTTP plumbing shared by the Toggl and
// Notion adapters: header injection, status checking, body decoding and
// retry with exponential backoff on throttling and server errors.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrMalformedResponse marks a 2xx response whose body could not be parsed
// into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

const (
	maxErrorBody    = 4096
	maxResponseBody = 32 << 20
	defaultRetries  = 4
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int
	Body       string

	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s: unexpected status %d: %s", e.Service, e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client sends JSON requests to a single remote service.
type Client struct {
	service    string
	header     http.Header
	http       *http.Client
	log        *slog.Logger
	newBackOff func() backoff.BackOff
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (30s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBackOff sets the backoff policy factory; one policy is created per call.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = f }
}

// DefaultBackOff retries up to four times, starting at 500ms and capping a
// single wait at 10s.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(b, defaultRetries)
}

// New returns a Client that adds header to every request.
func New(service string, header http.Header, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		service: service,
		header:  header.Clone(),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log,
		newBackOff: DefaultBackOff,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CallOption customises a single Do call.
type CallOption func(*callConfig)

type callConfig struct {
	retry bool
}

// NoRetry sends the request exactly once. Use it for requests that are not
// safe to repeat, such as creates.
func NoRetry() CallOption {
	return func(cc *callConfig) { cc.retry = false }
}

// Retryable reports whether err is a failure worth repeating: a network
// error, 429 or 5xx. Context cancellation, other statuses and malformed
// bodies are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, ErrMalformedResponse)
}

// Do sends in (when non-nil) as a JSON body and decodes a 2xx response into
// out (when non-nil). Retryable failures are repeated with backoff unless
// NoRetry is given; any other failure is returned immediately.
func (c *Client) Do(ctx context.Context, method, url string, in, out any, opts ...CallOption) error {
	cc := callConfig{retry: true}
	for _, o := range opts {
		o(&cc)
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		payload = b
	}
	if !cc.retry {
		return c.once(ctx, method, url, payload, out)
	}

	hint := &retryAfterBackOff{BackOff: c.newBackOff()}
	op := func() error {
		err := c.once(ctx, method, url, payload, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) {
			hint.wait = se.retryAfter
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("retrying request",
			slog.String("service", c.service),
			slog.String("method", method),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(hint, ctx), notify)
}

func (c *Client) once(ctx context.Context, method, url string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w", c.service, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    c.service,
			Method:     method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(b),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.service, err)
	}
	c.log.Debug("http response",
		slog.String("service", c.service),
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(b)),
	)
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, c.service, req.URL.Path, err)
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryAfterBackOff stretches the next wait to the server's Retry-After hint.
type retryAfterBackOff struct {
	backoff.BackOff
	wait time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.wait > next {
		next = b.wait
	}
	b.wait = 0
	return next
}

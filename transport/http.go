// Package transport provides api.Transport implementations: a net/http
// based default and decorators that add metrics and tracing to any other.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chinmay1088/mempool/api"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultRetryWait        = 500 * time.Millisecond
	DefaultMaxResponseBytes = 10 << 20

	// maxStatusBody bounds the body excerpt kept in a StatusError
	maxStatusBody = 1024
)

// ErrResponseTooLarge is returned when a response exceeds the configured size limit
var ErrResponseTooLarge = errors.New("response body too large")

// StatusError is returned for any response outside the 2xx range
type StatusError struct {
	Method     api.Method
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether repeating the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTP is the default api.Transport, built on net/http.
// Non-2xx responses become *StatusError. Server errors, 429s and network
// failures are retried when WithRetries is set; nothing else is.
type HTTP struct {
	client           *http.Client
	timeout          time.Duration
	retries          int
	retryWait        time.Duration
	userAgent        string
	maxResponseBytes int64
	logger           *slog.Logger
}

var _ api.Transport = (*HTTP)(nil)

// Option configures an HTTP transport
type Option func(*HTTP)

// WithHTTPClient sets the *http.Client used for requests.
// WithTimeout has no effect on a client set this way.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *HTTP) {
		if hc != nil {
			t.client = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default client
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTP) {
		t.timeout = timeout
	}
}

// WithRetries sets how many times a failed request is repeated
func WithRetries(retries int) Option {
	return func(t *HTTP) {
		if retries >= 0 {
			t.retries = retries
		}
	}
}

// WithRetryWait sets the base wait between attempts. The n-th retry waits n times as long.
func WithRetryWait(wait time.Duration) Option {
	return func(t *HTTP) {
		t.retryWait = wait
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(t *HTTP) {
		t.userAgent = userAgent
	}
}

// WithMaxResponseBytes limits the size of accepted response bodies
func WithMaxResponseBytes(n int64) Option {
	return func(t *HTTP) {
		if n > 0 {
			t.maxResponseBytes = n
		}
	}
}

// WithLogger sets the logger used for per-request debug output
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTP) {
		t.logger = logger
	}
}

// NewHTTP creates a new HTTP transport
func NewHTTP(opts ...Option) *HTTP {
	t := &HTTP{
		timeout:          DefaultTimeout,
		retryWait:        DefaultRetryWait,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{
			Timeout: t.timeout,
		}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Send implements api.Transport
func (t *HTTP) Send(ctx context.Context, method api.Method, url string, body []byte) ([]byte, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			wait := t.retryWait * time.Duration(attempt)
			t.logger.Debug("retrying request",
				"method", method.String(),
				"url", url,
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("request cancelled after %d attempts: %w", attempt, err)
			}
		}

		data, err := t.do(ctx, method, url, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (t *HTTP) do(ctx context.Context, method api.Method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if method == api.MethodPost && body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method.String(), url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "text/plain")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	t.logger.Debug("request completed",
		"method", method.String(),
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := data
		if len(excerpt) > maxStatusBody {
			excerpt = excerpt[:maxStatusBody]
		}
		return nil, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(excerpt)),
		}
	}
	if int64(len(data)) > t.maxResponseBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, t.maxResponseBytes)
	}
	return data, nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return !errors.Is(err, ErrResponseTooLarge)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package sdk

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultMaxUploadBytes matches the backend's request size cap.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

type options struct {
	timeout        time.Duration
	maxAttempts    int
	initialDelay   time.Duration
	httpClient     *http.Client
	jar            http.CookieJar
	logger         *slog.Logger
	maxUploadBytes int64
}

func defaultOptions() options {
	return options{
		timeout:        30 * time.Second,
		maxAttempts:    3,
		initialDelay:   500 * time.Millisecond,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
}

// Option configures the SDK client.
type Option func(*options)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry configures retry behaviour for idempotent reads.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// WithHTTPClient sets a custom HTTP client. Its Jar is replaced when
// WithCookieJar is also given.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCookieJar sets the jar holding the backend session cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *options) { o.jar = jar }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxUploadBytes sets the client-side screenshot size limit.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) { o.maxUploadBytes = n }
}

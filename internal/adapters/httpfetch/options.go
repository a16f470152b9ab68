package httpfetch

import (
	"net/http"
	"time"

	"github.com/okian/talentradar/internal/adapters/cache"
	"github.com/okian/talentradar/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithCache sets the response cache, its entry TTL and key prefix.
func WithCache(c cache.Cache, ttl time.Duration, keyPrefix string) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
		if ttl > 0 {
			f.ttl = ttl
		}
		f.keyPrefix = keyPrefix
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.headers.Add(key, value)
	}
}

// WithRetry sets the attempt count and base delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(f *Fetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if delay >= 0 {
			f.delay = delay
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

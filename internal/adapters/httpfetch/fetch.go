// Package httpfetch performs cached, retried JSON GETs against REST APIs.
package httpfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/okian/talentradar/internal/adapters/cache"
	"github.com/okian/talentradar/pkg/logger"
)

// notFoundMarker is cached in place of a 404 body.
const notFoundMarker = "\x00not-found"

const maxBodyBytes = 4 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Fetcher issues GET requests with retry and an optional response cache.
type Fetcher struct {
	client    *http.Client
	cache     cache.Cache
	ttl       time.Duration
	keyPrefix string
	headers   http.Header
	attempts  uint
	delay     time.Duration
	log       logger.Logger
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    cache.Nop{},
		ttl:      time.Hour,
		headers:  make(http.Header),
		attempts: 3,
		delay:    200 * time.Millisecond,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetJSON decodes the body at url into out. It reports found=false on 404.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) (bool, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return false, err
	}
	if body == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", url, err)
	}
	return true, nil
}

// Get returns the body at url, or nil on 404. Successful and 404 answers
// are cached; other failures are not.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	key := cache.Key(f.keyPrefix, url)
	if body, ok, err := f.cache.Get(ctx, key); err != nil {
		f.log.Warn(ctx, "cache read failed", logger.String("url", url), logger.Error(err))
	} else if ok {
		if string(body) == notFoundMarker {
			return nil, nil
		}
		return body, nil
	}

	body, err := f.fetch(ctx, url)
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		f.store(ctx, key, []byte(notFoundMarker))
		return nil, nil
	case err != nil:
		return nil, err
	}
	f.store(ctx, key, body)
	return body, nil
}

func (f *Fetcher) store(ctx context.Context, key string, body []byte) {
	if err := f.cache.Set(ctx, key, body, f.ttl); err != nil {
		f.log.Warn(ctx, "cache write failed", logger.Error(err))
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = f.headers.Clone()

	return retry.DoWithData(
		func() ([]byte, error) {
			resp, err := f.client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // read-only body

			if resp.StatusCode != http.StatusOK {
				return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
			}
			return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.MaxJitter(f.delay/2+time.Millisecond),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			f.log.Debug(ctx, "retrying request",
				logger.Int("attempt", int(n)+1),
				logger.String("url", url),
				logger.Error(err))
		}),
	)
}

// isRetryable is true for 429, 5xx and transport errors.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

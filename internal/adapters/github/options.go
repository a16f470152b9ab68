package github

import (
	"time"

	"github.com/okian/talentradar/internal/adapters/httpfetch"
	"github.com/okian/talentradar/pkg/logger"
)

type options struct {
	fetch []httpfetch.Option
	log   logger.Logger
	now   func() time.Time
}

// Option configures a Client.
type Option func(*options)

// WithFetchOptions passes options to the underlying fetcher, for example a
// response cache or retry policy.
func WithFetchOptions(opts ...httpfetch.Option) Option {
	return func(o *options) {
		o.fetch = append(o.fetch, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithClock sets the clock used for account age and the contribution window.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

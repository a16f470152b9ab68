package enrichment

import (
	"time"

	"github.com/okian/talentradar/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithInsights sets the career insight suggester. Nil disables insights.
func WithInsights(s InsightSuggester) Option {
	return func(e *Engine) {
		e.insights = s
	}
}

// WithRules replaces the cross-reference rules.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// WithFetchTimeout bounds every collaborator call.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

// WithConcurrency bounds parallel batch enrichment.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the clock used for discovery timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

package scoring

import (
	"time"

	"github.com/okian/talentradar/internal/domain/classify"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the weight set.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithTables sets the classification tables.
func WithTables(t *classify.Tables) Option {
	return func(e *Engine) {
		if t != nil {
			e.tables = t
		}
	}
}

// WithClock sets the clock used for open-ended experience durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

package api

import (
	"time"

	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/dedupe"
	"github.com/okian/talentradar/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithTables sets the tables used for derived flags in responses.
func WithTables(t *classify.Tables) Option {
	return func(s *Server) {
		if t != nil {
			s.tables = t
		}
	}
}

// WithDiscovery enables POST /api/discover.
func WithDiscovery(d dedupe.Deduper, q JobQueue) Option {
	return func(s *Server) {
		s.deduper = d
		s.jobs = q
	}
}

// WithPublisher announces every stored candidate.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMaxLimit caps ?limit and batch sizes.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Package service assembles the candidate scoring service from its
// configuration and owns the lifecycle of its background parts.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/talentradar/internal/adapters/cache"
	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/adapters/http/api"
	"github.com/okian/talentradar/internal/adapters/http/swagger"
	"github.com/okian/talentradar/internal/adapters/mq/queue"
	"github.com/okian/talentradar/internal/adapters/mq/worker"
	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/config"
	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/dedupe"
	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/internal/domain/scoring"
	"github.com/okian/talentradar/pkg/logger"
	"github.com/okian/talentradar/pkg/metrics"
)

// HTTP server timeouts. Writes allow for synchronous batch enrichment.
const (
	readTimeout       = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var ErrNotStarted = errors.New("service not started")

// Service wires storage, enrichment, the job pipeline and the HTTP API.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config
	log logger.Logger

	// Injected overrides; nil means build from cfg.
	store     repository.Store
	publisher events.Publisher
	collab    *Collaborators

	cache    cache.Cache
	scorer   *scoring.Engine
	tables   *classify.Tables
	enricher *enrichment.Engine
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	api      *api.Server

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStore replaces the configured repository backend.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithPublisher replaces the configured event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithCollaborators replaces the configured enrichment sources.
func WithCollaborators(c Collaborators) Option {
	return func(s *Service) { s.collab = &c }
}

// New constructs a Service over cfg. Nothing is connected until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects every dependency and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	cfg := s.cfg
	s.log.Info(ctx, "starting talentradar service...")

	s.scorer, s.tables = BuildScorer(cfg)

	if s.collab == nil {
		s.cache = BuildCache(ctx, cfg, s.log)
		collab, err := BuildCollaborators(ctx, cfg, s.cache, s.log)
		if err != nil {
			_ = s.cache.Close()
			return err
		}
		s.collab = &collab
	} else {
		s.cache = cache.Nop{}
	}
	s.enricher = BuildEnricher(cfg, *s.collab, s.scorer, s.log)

	if s.store == nil {
		st, err := BuildStore(ctx, cfg)
		if err != nil {
			_ = s.cache.Close()
			return err
		}
		s.store = st
	}
	s.log.Info(ctx, "using candidate store", logger.String("backend", cfg.Store.Backend))

	if s.publisher == nil {
		p, err := BuildPublisher(cfg, s.log)
		if err != nil {
			_ = s.store.Close()
			_ = s.cache.Close()
			return fmt.Errorf("connect event publisher: %w", err)
		}
		s.publisher = p
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.Dedupe.Size))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.Queue.Size))
	s.pool = worker.NewPool(cfg.Worker.Count, s.queue, s.enricher, s.store,
		worker.WithLogger(s.log.Named("worker")),
		worker.WithPublisher(s.publisher),
	)
	s.pool.Start(ctx)

	s.api = api.NewServer(s.store, s.scorer, s.enricher,
		api.WithTables(s.tables),
		api.WithDiscovery(s.deduper, s.queue),
		api.WithPublisher(s.publisher),
		api.WithMaxLimit(cfg.HTTP.MaxListLimit),
		api.WithLogger(s.log.Named("api")),
	)

	s.started = true
	s.log.Info(ctx, "talentradar service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("dedupeSize", cfg.Dedupe.Size),
		logger.Bool("xEnabled", s.collab.Social != nil),
		logger.Bool("insightsEnabled", s.collab.Insights != nil),
	)
	return nil
}

// Handler returns the HTTP handler with API and documentation routes.
func (s *Service) Handler() (http.Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	mux := http.NewServeMux()
	s.api.Register(mux)
	swagger.Register(mux)
	return mux, nil
}

// Serve runs the HTTP listener on cfg.HTTP.Addr until ctx is cancelled,
// then shuts it down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error(shutdownCtx, "http server shutdown error", logger.Error(err))
		return err
	}
	return nil
}

// Enricher returns the enrichment engine. It is nil before Start.
func (s *Service) Enricher() *enrichment.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enricher
}

// Store returns the candidate store. It is nil before Start unless injected.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Stop drains the job pipeline and releases every connection.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.log.Info(ctx, "stopping talentradar service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	s.started = false
	s.log.Info(ctx, "talentradar service stopped")
	return errors.Join(errs...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["workerCount"] = s.pool.Size()
		stats["queueCapacity"] = s.queue.Capacity()
		stats["queueLength"] = queueLen
		stats["dedupeSize"] = s.deduper.Size()
		stats["candidates"] = s.store.Count(ctx)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

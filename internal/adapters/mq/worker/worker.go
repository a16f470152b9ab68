// Package worker drains background enrichment jobs: enrich the anchor,
// store the scored candidate and announce it.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/pkg/logger"
	"github.com/okian/talentradar/pkg/metrics"
)

const (
	defaultJobTimeout   = time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Enricher resolves an anchor into a scored profile.
type Enricher interface {
	Enrich(ctx context.Context, platform model.Platform, handle string) (model.EnrichedProfile, error)
}

// Store persists scored candidates.
type Store interface {
	Upsert(ctx context.Context, c model.Candidate) (bool, error)
}

// Queue is where workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.EnrichmentJob
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run blocks until ctx is done, the queue is drained and closed, or
	// Shutdown is called.
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	enricher   Enricher
	store      Store
	publisher  events.Publisher
	name       string
	jobTimeout time.Duration
	now        func() time.Time

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a worker. Events go nowhere unless WithPublisher
// is given.
func NewInMemoryWorker(q Queue, enricher Enricher, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		enricher:   enricher,
		store:      store,
		publisher:  events.Nop{},
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		now:        time.Now,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.Process(ctx, job); err != nil {
				w.logger.Error(ctx, "enrichment job failed",
					logger.String("job_id", job.JobID),
					logger.String("anchor", job.AnchorKey()),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the loop after the current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Process runs one job. An anchor that resolves to nothing is not an error.
func (w *InMemoryWorker) Process(ctx context.Context, job model.EnrichmentJob) error {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		metrics.RecordWorkerJob(outcome, float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	profile, err := w.enricher.Enrich(ctx, job.Platform, job.Handle)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", job.AnchorKey(), err)
	}
	if profile.Empty() {
		outcome = metrics.OutcomeNotFound
		w.logger.Info(ctx, "anchor not found",
			logger.String("job_id", job.JobID),
			logger.String("anchor", job.AnchorKey()))
		return nil
	}

	c := profile.Candidate
	if c.ID == "" {
		c.ID = model.CandidateID(job.Platform, job.Handle)
	}
	created, err := w.store.Upsert(ctx, c)
	if err != nil {
		return fmt.Errorf("store %s: %w", c.ID, err)
	}
	outcome = metrics.OutcomeSuccess

	if err := w.publisher.PublishScored(ctx, events.NewCandidateScored(c, profile.Sources, w.now())); err != nil {
		w.logger.Warn(ctx, "scored event not published", logger.String("id", c.ID), logger.Error(err))
	}
	w.logger.Debug(ctx, "candidate enriched",
		logger.String("job_id", job.JobID),
		logger.String("id", c.ID),
		logger.Bool("created", created),
		logger.Float64("total", c.Score.Total),
		logger.String("tier", c.Tier.String()))
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates count workers. A count below 1 means runtime.NumCPU().
// Options apply to every worker.
func NewPool(count int, q Queue, enricher Enricher, store Store, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   q,
		logger:  logger.NewNop(),
	}
	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, enricher, store, wopts...)
	}
	if count > 0 {
		p.logger = p.workers[0].logger
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so workers drain what is pending, then waits.
// Workers still busy when ctx (capped at 30s) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			timedOut++
			w.stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers still busy: %w", timedOut, ctx.Err())
	}
	return nil
}

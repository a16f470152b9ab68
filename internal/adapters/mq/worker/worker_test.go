package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/adapters/mq/queue"
	worker "github.com/okian/talentradar/internal/adapters/mq/worker"
	model "github.com/okian/talentradar/internal/domain/model"
)

type mockEnricher struct {
	mu       sync.Mutex
	profiles map[string]model.EnrichedProfile
	errs     map[string]error
	calls    []string
}

func newMockEnricher() *mockEnricher {
	return &mockEnricher{profiles: map[string]model.EnrichedProfile{}, errs: map[string]error{}}
}

func (m *mockEnricher) Enrich(_ context.Context, platform model.Platform, handle string) (model.EnrichedProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.AnchorKey(platform, handle)
	m.calls = append(m.calls, key)
	if err := m.errs[key]; err != nil {
		return model.EnrichedProfile{}, err
	}
	return m.profiles[key], nil
}

func (m *mockEnricher) set(platform model.Platform, handle string, c model.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[model.AnchorKey(platform, handle)] = model.EnrichedProfile{
		Candidate: c,
		Sources:   []model.Platform{platform},
	}
}

type mockStore struct {
	mu   sync.Mutex
	byID map[string]model.Candidate
	err  error
}

func newMockStore() *mockStore { return &mockStore{byID: map[string]model.Candidate{}} }

func (m *mockStore) Upsert(_ context.Context, c model.Candidate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, exists := m.byID[c.ID]
	m.byID[c.ID] = c
	return !exists, nil
}

func (m *mockStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.CandidateScored
	err    error
}

func (m *mockPublisher) PublishScored(_ context.Context, ev events.CandidateScored) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func job(platform model.Platform, handle string) model.EnrichmentJob {
	return model.EnrichmentJob{JobID: "job-" + handle, Platform: platform, Handle: handle, SubmittedAt: time.Now()}
}

func TestProcess(t *testing.T) {
	convey.Convey("Given a worker over mocks", t, func() {
		ctx := context.Background()
		enricher := newMockEnricher()
		store := newMockStore()
		pub := &mockPublisher{}
		fixed := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
		w := worker.NewInMemoryWorker(queue.NewInMemoryQueue(), enricher, store,
			worker.WithPublisher(pub), worker.WithClock(func() time.Time { return fixed }))

		convey.Convey("A resolved anchor is stored under its stable id and announced", func() {
			enricher.set(model.PlatformGitHub, "jane", model.Candidate{Name: "Jane", Tier: model.TierHigh, Score: model.Score{Total: 62}})

			err := w.Process(ctx, job(model.PlatformGitHub, "jane"))
			convey.So(err, convey.ShouldBeNil)

			id := model.CandidateID(model.PlatformGitHub, "jane")
			convey.So(store.byID, convey.ShouldContainKey, id)
			convey.So(pub.events, convey.ShouldHaveLength, 1)
			convey.So(pub.events[0].ID, convey.ShouldEqual, id)
			convey.So(pub.events[0].Tier, convey.ShouldEqual, model.TierHigh)
			convey.So(pub.events[0].Sources, convey.ShouldResemble, []model.Platform{model.PlatformGitHub})
			convey.So(pub.events[0].ScoredAt, convey.ShouldEqual, fixed)
		})

		convey.Convey("Re-enriching the same handle updates one record", func() {
			enricher.set(model.PlatformX, "jd", model.Candidate{Name: "JD"})
			convey.So(w.Process(ctx, job(model.PlatformX, "jd")), convey.ShouldBeNil)
			convey.So(w.Process(ctx, job(model.PlatformX, "@JD")), convey.ShouldBeNil)
			convey.So(store.len(), convey.ShouldEqual, 1)
		})

		convey.Convey("An existing id is kept", func() {
			enricher.set(model.PlatformGitHub, "kim", model.Candidate{ID: "fixed-id", Name: "Kim"})
			convey.So(w.Process(ctx, job(model.PlatformGitHub, "kim")), convey.ShouldBeNil)
			convey.So(store.byID, convey.ShouldContainKey, "fixed-id")
		})

		convey.Convey("An unresolved anchor stores nothing and is not an error", func() {
			convey.So(w.Process(ctx, job(model.PlatformGitHub, "ghost")), convey.ShouldBeNil)
			convey.So(store.len(), convey.ShouldEqual, 0)
			convey.So(pub.events, convey.ShouldBeEmpty)
		})

		convey.Convey("Enrichment errors are returned", func() {
			boom := errors.New("boom")
			enricher.errs[model.AnchorKey(model.PlatformX, "bad")] = boom
			err := w.Process(ctx, job(model.PlatformX, "bad"))
			convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
		})

		convey.Convey("Store errors are returned and nothing is announced", func() {
			store.err = errors.New("disk full")
			enricher.set(model.PlatformGitHub, "jane", model.Candidate{Name: "Jane"})
			err := w.Process(ctx, job(model.PlatformGitHub, "jane"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(pub.events, convey.ShouldBeEmpty)
		})

		convey.Convey("Publish failures do not fail the job", func() {
			pub.err = errors.New("nats down")
			enricher.set(model.PlatformGitHub, "jane", model.Candidate{Name: "Jane"})
			convey.So(w.Process(ctx, job(model.PlatformGitHub, "jane")), convey.ShouldBeNil)
			convey.So(store.len(), convey.ShouldEqual, 1)
		})
	})
}

func TestRunAndShutdown(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue(smallQueue())
		enricher := newMockEnricher()
		store := newMockStore()
		enricher.set(model.PlatformGitHub, "a", model.Candidate{Name: "A"})
		w := worker.NewInMemoryWorker(q, enricher, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.So(q.Enqueue(ctx, job(model.PlatformGitHub, "a")), convey.ShouldBeNil)
		convey.So(waitFor(func() bool { return store.len() == 1 }), convey.ShouldBeTrue)

		convey.Convey("Shutdown returns once the loop exits", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(smallQueue())
		enricher := newMockEnricher()
		store := newMockStore()
		pub := &mockPublisher{}
		handles := []string{"a", "b", "c", "d", "e", "f"}
		for _, h := range handles {
			enricher.set(model.PlatformGitHub, h, model.Candidate{Name: h})
		}

		pool := worker.NewPool(3, q, enricher, store, worker.WithPublisher(pub))
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		pool.Start(ctx)
		for _, h := range handles {
			convey.So(q.Enqueue(ctx, job(model.PlatformGitHub, h)), convey.ShouldBeNil)
		}

		convey.Convey("Shutdown drains pending jobs first", func() {
			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(store.len(), convey.ShouldEqual, len(handles))
			convey.So(pub.count(), convey.ShouldEqual, len(handles))
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("A non-positive size falls back to the CPU count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockEnricher(), newMockStore())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}

func smallQueue() queue.Option { return queue.WithCapacity(16) }

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

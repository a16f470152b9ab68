package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/types"
	"github.com/okian/talentradar/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total score DESC, then candidate ID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking
// from best to worst.

// scoreScale controls fixed-point scaling from float64. Totals are bounded
// by the weight sum times 100, far below the int64 range.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case x*scoreScale <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64()}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, visit) && visit(n) && walk(n.right, visit)
}

// TreapStore keeps candidates in a map and their ranking in a treap.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.Candidate

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a treap store and starts its metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]model.Candidate),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, c model.Candidate) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := checkWritable(c); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, exists := s.byID[c.ID]
	if exists {
		s.root = deleteNode(s.root, old.ID, toFixedPoint(old.Score.Total))
	}
	s.byID[c.ID] = c
	s.root = insert(s.root, c.ID, toFixedPoint(c.Score.Total))
	return !exists, nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(_ context.Context, id string) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return model.Candidate{}, ErrNotFound
	}
	return c, nil
}

// Delete implements Store.Delete.
func (s *TreapStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.root = deleteNode(s.root, id, toFixedPoint(c.Score.Total))
	delete(s.byID, id)
	return nil
}

// List implements Store.List by walking the ranking once.
func (s *TreapStore) List(_ context.Context, f Filter) (Page, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := validLimit(f); err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page := Page{Candidates: make([]model.Candidate, 0, min(f.Limit, len(s.byID)))}
	walk(s.root, func(n *node) bool {
		c := s.byID[n.id]
		if !f.Matches(c) {
			return true
		}
		if page.Total >= f.Offset && len(page.Candidates) < f.Limit {
			page.Candidates = append(page.Candidates, c)
		}
		page.Total++
		return true
	})
	return page, nil
}

// Rank implements Store.Rank.
func (s *TreapStore) Rank(_ context.Context, id string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.byID[id]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	ts := toFixedPoint(target.Score.Total)

	rank := 0
	var prev scoreFP
	walk(s.root, func(n *node) bool {
		if n.score < ts {
			return false
		}
		if rank == 0 || n.score != prev {
			rank++
			prev = n.score
		}
		return n.score != ts
	})
	e := entryOf(target)
	e.Rank = rank
	return e, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byID)))
	walk(s.root, func(nd *node) bool {
		out = append(out, entryOf(s.byID[nd.id]))
		return len(out) < n
	})
	assignRanks(out, 1)
	return out, nil
}

// Stats implements Store.Stats.
func (s *TreapStore) Stats(_ context.Context) (types.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc := newStatsAccumulator()
	for _, c := range s.byID {
		acc.add(c.Score.Total, c.Tier, c.CurrentCompany)
	}
	return acc.stats(), nil
}

// Count returns the total number of candidates.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater periodically publishes the tier distribution.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *TreapStore) updateMetrics(ctx context.Context) {
	st, _ := s.Stats(ctx)
	metrics.UpdateTierDistribution(st.TierDistribution)
}

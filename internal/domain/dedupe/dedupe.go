// Package dedupe tracks recently submitted enrichment anchors so the same
// handle is not enriched twice in a short window.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Deduper records seen anchor keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen inside the window and
	// records it if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so it can be submitted again, e.g. after the job
	// could not be enqueued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key  string
	seen time.Time
}

// inMemoryDeduper keeps keys in insertion order. When full, the oldest key
// is evicted; keys older than the window count as unseen.
type inMemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List // front = newest
	maxSize int        // <= 0 means unbounded
	window  time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.index[key]; ok {
		e := el.Value.(*entry)
		if d.window <= 0 || now.Sub(e.seen) < d.window {
			return true
		}
		// expired: refresh in place
		e.seen = now
		d.order.MoveToFront(el)
		return false
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.index[key] = d.order.PushFront(&entry{key: key, seen: now})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		d.order.Remove(el)
		delete(d.index, key)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.index, el.Value.(*entry).key)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

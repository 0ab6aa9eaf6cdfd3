// Package dedupe derives filing dedup keys and tracks recently seen ones.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Deduper records seen dedup keys so repeated submissions can be answered without a store lookup.
// The store's unique constraint on the key remains authoritative.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key, e.g. when the filing it belonged to was rejected downstream.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper keeps keys in a map plus a ring of insertion order.
// Bounded mode (maxSize > 0) evicts the oldest key once the ring wraps.
// Unbounded mode (maxSize <= 0) never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 in unbounded mode
	ring    []slot
	next    int
	maxSize int
	size    atomic.Int64
}

type slot struct {
	key  string
	used bool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]slot, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[key] = -1
		d.size.Add(1)
		return false
	}

	// Evict whatever still occupies the slot we are about to reuse.
	if old := d.ring[d.next]; old.used {
		if at, ok := d.seen[old.key]; ok && at == d.next {
			delete(d.seen, old.key)
			d.size.Add(-1)
		}
	}
	d.ring[d.next] = slot{key: key, used: true}
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	at, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if at >= 0 {
		d.ring[at] = slot{}
	}
	d.size.Add(-1)
}

// Size returns the current number of keys held.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

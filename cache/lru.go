package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRUBackend is an in-process cache backend with least-recently-used
// eviction and lazy TTL expiry. Expired entries are detected and removed
// on access rather than by a background sweeper, so an idle cache holds no
// goroutines. It is safe for concurrent use.
type LRUBackend[O any] struct {
	mu          sync.Mutex
	maxSize     int
	ttl         time.Duration
	order       *list.List
	entries     map[string]*list.Element
	evictions   uint64
	expirations uint64

	now func() time.Time
}

type lruEntry[O any] struct {
	key        string
	value      O
	insertedAt time.Time
}

// NewLRUBackend returns an LRUBackend bounded to maxSize entries whose
// entries expire ttl after insertion. maxSize <= 0 means unbounded;
// ttl <= 0 disables expiry.
func NewLRUBackend[O any](maxSize int, ttl time.Duration) *LRUBackend[O] {
	return &LRUBackend[O]{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the live entry for key, marking it most recently used.
func (b *LRUBackend[O]) Get(_ context.Context, key string) (O, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero O

	el, ok := b.entries[key]
	if !ok {
		return zero, false, nil
	}

	entry := el.Value.(*lruEntry[O])

	if b.expired(entry) {
		b.remove(el)
		b.expirations++

		return zero, false, nil
	}

	b.order.MoveToFront(el)

	return entry.value, true, nil
}

// Put stores value under key, replacing any previous entry and evicting
// the least recently used entry when the bound is exceeded.
func (b *LRUBackend[O]) Put(_ context.Context, key string, value O) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.entries[key]; ok {
		entry := el.Value.(*lruEntry[O])
		entry.value = value
		entry.insertedAt = b.now()
		b.order.MoveToFront(el)

		return nil
	}

	el := b.order.PushFront(&lruEntry[O]{key: key, value: value, insertedAt: b.now()})
	b.entries[key] = el

	if b.maxSize > 0 && b.order.Len() > b.maxSize {
		if back := b.order.Back(); back != nil {
			b.remove(back)
			b.evictions++
		}
	}

	return nil
}

// Delete removes the entry for key if present.
func (b *LRUBackend[O]) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.entries[key]; ok {
		b.remove(el)
	}

	return nil
}

// Len returns the current entry count, including entries that have expired
// but not yet been touched.
func (b *LRUBackend[O]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.order.Len()
}

func (b *LRUBackend[O]) expired(entry *lruEntry[O]) bool {
	return b.ttl > 0 && b.now().Sub(entry.insertedAt) >= b.ttl
}

func (b *LRUBackend[O]) remove(el *list.Element) {
	entry := b.order.Remove(el).(*lruEntry[O])
	delete(b.entries, entry.key)
}

func (b *LRUBackend[O]) counters() (evictions, expirations uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.evictions, b.expirations
}

package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// storedEntry is the internal representation persisted by InMemoryStore.
// A zero expiresAt means the entry never expires.
type storedEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryStore is a process-local core.Store. It is the zero-dependency
// default backing the deep memory layer and the remote cache backend in
// tests and single-process deployments.
//
// Concurrency: protected by RWMutex.
// Expiry: lazy; an expired entry is removed when it is next read.
// Search: linear scan with substring matching over keys and values,
// assigning a constant score of 1.0 to every hit. Suitable for modest
// entry counts; swap in the SQLite or Redis store for production corpora.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]storedEntry

	now func() time.Time
}

// NewInMemoryStore creates an empty in-process store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]storedEntry),
		now:     time.Now,
	}
}

// Add stores value under key, replacing any previous entry. A positive ttl
// bounds the entry's lifetime; zero keeps it until deleted.
func (s *InMemoryStore) Add(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedEntry{value: slices.Clone(value)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.entries[key] = entry

	return nil
}

// Get returns the live value stored under key.
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	if s.expired(entry) {
		delete(s.entries, key)
		return nil, false, nil
	}

	return slices.Clone(entry.value), true, nil
}

// Search performs a substring match of query over keys and values of live
// entries. An empty query matches everything. Results are ordered by key
// so repeated searches are deterministic; filters are ignored since the
// flat byte values carry no server-side structure to filter on.
func (s *InMemoryStore) Search(_ context.Context, query string, k int, _ map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		k = defaultSearchK
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	results := make([]core.SearchResult, 0, k)

	for _, key := range keys {
		if len(results) >= k {
			break
		}

		entry := s.entries[key]
		if s.expired(entry) {
			delete(s.entries, key)
			continue
		}

		if query == "" || strings.Contains(key, query) || strings.Contains(string(entry.value), query) {
			results = append(results, core.SearchResult{Key: key, Value: slices.Clone(entry.value), Score: 1.0})
		}
	}

	return results, nil
}

// Delete removes the entry stored under key. Deleting a missing key is not
// an error.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

// Len returns the number of entries currently held, including expired
// entries that have not yet been touched.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func (s *InMemoryStore) expired(entry storedEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

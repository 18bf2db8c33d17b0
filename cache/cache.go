package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/flowkit/core"
)

// KeyFunc derives the cache key for an input. It must be deterministic:
// equal inputs produce equal keys across processes and restarts.
type KeyFunc[I any] func(fc *core.Context, in I) (string, error)

// DefaultKey hashes the JSON serialization of the input with SHA-256.
// encoding/json sorts map keys, so the result is stable for equal inputs.
// Inputs that cannot be serialized yield an error, which disables caching
// for that call.
func DefaultKey[I any](fc *core.Context, in I) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// Backend is the pluggable storage behind a Cache. Implementations must be
// safe for concurrent use.
type Backend[O any] interface {
	// Get returns the cached value for key and whether a live entry was
	// found. Expired entries are treated as absent.
	Get(ctx context.Context, key string) (O, bool, error)

	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key string, value O) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// backendCounters is implemented by backends that track eviction and
// expiration counts, letting Stats surface them.
type backendCounters interface {
	counters() (evictions, expirations uint64)
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// Options configures construction of a Cache.
type Options struct {
	// TTL bounds entry freshness in the default in-process backend.
	// Zero disables expiry. Defaults to 5 minutes.
	TTL time.Duration

	// MaxSize bounds the entry count of the default in-process backend;
	// the least recently used entry is evicted beyond it. Zero means
	// unbounded. Defaults to 1024.
	MaxSize int

	// SingleFlight collapses concurrent misses for the same key into one
	// execution whose result every caller shares. The first caller's
	// context governs that execution. Off by default.
	SingleFlight bool
}

// Cache memoizes the results of one primitive.
//
// Key features:
//   - Deterministic keying (hash of the serialized input by default)
//   - In-process LRU backend with lazy TTL expiry
//   - Pluggable remote backends via core.Store
//   - Graceful degradation when the backend is unavailable
//   - Optional single-flight miss collapsing
//   - Hit/miss/eviction/expiration counters
type Cache[I, O any] struct {
	core.Base
	child   core.Primitive[I, O]
	keyFn   KeyFunc[I]
	backend Backend[O]
	group   *singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New wraps child with a cache. The default backend is an in-process LRU
// sized and aged per Options.
func New[I, O any](child core.Primitive[I, O], optFns ...func(o *Options)) *Cache[I, O] {
	opts := Options{TTL: 5 * time.Minute, MaxSize: 1024}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Cache[I, O]{
		Base:    core.NewBase("cache(" + child.Name() + ")"),
		child:   child,
		keyFn:   DefaultKey[I],
		backend: NewLRUBackend[O](opts.MaxSize, opts.TTL),
	}

	if opts.SingleFlight {
		c.group = &singleflight.Group{}
	}

	return c
}

// WithKeyFunc replaces the key derivation function. Returns the receiver
// for chaining.
func (c *Cache[I, O]) WithKeyFunc(fn KeyFunc[I]) *Cache[I, O] {
	c.keyFn = fn
	return c
}

// WithBackend replaces the storage backend. Returns the receiver for
// chaining.
func (c *Cache[I, O]) WithBackend(b Backend[O]) *Cache[I, O] {
	c.backend = b
	return c
}

// WithSingleFlight enables miss collapsing, equivalent to setting
// Options.SingleFlight. Returns the receiver for chaining.
func (c *Cache[I, O]) WithSingleFlight() *Cache[I, O] {
	if c.group == nil {
		c.group = &singleflight.Group{}
	}

	return c
}

// Execute returns the cached result for the input's key when present,
// otherwise runs the wrapped primitive and stores its successful result.
// Key derivation or backend failures disable caching for the call instead
// of failing it.
func (c *Cache[I, O]) Execute(fc *core.Context, in I) (O, error) {
	key, err := c.keyFn(fc, in)
	if err != nil {
		fc.LogWarn("cache key derivation failed, executing uncached", "primitive", c.child.Name(), "error", err)

		return c.child.Execute(fc, in)
	}

	v, ok, err := c.backend.Get(fc.Context, key)
	if err != nil {
		fc.LogWarn("cache backend unavailable, executing uncached", "primitive", c.child.Name(), "error", err)

		return c.child.Execute(fc, in)
	}

	if ok {
		c.hits.Add(1)
		fc.LogDebug("cache hit", "primitive", c.child.Name(), "key", key)

		return v, nil
	}

	c.misses.Add(1)

	if c.group != nil {
		shared, err, _ := c.group.Do(key, func() (any, error) {
			return c.executeAndStore(fc, key, in)
		})
		if err != nil {
			var zero O
			return zero, err
		}

		return shared.(O), nil
	}

	return c.executeAndStore(fc, key, in)
}

// executeAndStore runs the wrapped primitive and stores a successful
// result. Store failures are logged and swallowed: the caller still gets
// the freshly computed value.
func (c *Cache[I, O]) executeAndStore(fc *core.Context, key string, in I) (O, error) {
	out, err := c.child.Execute(fc, in)
	if err != nil {
		return out, err
	}

	if perr := c.backend.Put(fc.Context, key, out); perr != nil {
		fc.LogWarn("cache store failed", "primitive", c.child.Name(), "key", key, "error", perr)
	}

	return out, nil
}

// Invalidate removes the cached result for the given input.
func (c *Cache[I, O]) Invalidate(fc *core.Context, in I) error {
	key, err := c.keyFn(fc, in)
	if err != nil {
		return err
	}

	return c.backend.Delete(fc.Context, key)
}

// Stats returns a snapshot of the cache counters. Eviction and expiration
// counts are only available from backends that track them (the in-process
// LRU does).
func (c *Cache[I, O]) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}

	if bc, ok := c.backend.(backendCounters); ok {
		s.Evictions, s.Expirations = bc.counters()
	}

	return s
}

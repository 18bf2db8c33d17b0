// Package redis provides a core.Store backed by Redis, letting several
// processes share one memory or cache store.
package redis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/flowkit/core"
)

// Store implements core.Store on a Redis client. Keys are namespaced with
// a prefix so one Redis database can serve several stores.
//
// Expiry is delegated to Redis itself via SET with expiration, so entries
// disappear without any purge bookkeeping on the client side.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Options configures construction of a Store.
type Options struct {
	// Prefix namespaces keys inside the Redis database. Defaults to
	// "flowkit:".
	Prefix string
}

// New creates a store on the given client.
func New(client redis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: "flowkit:"}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		client: client,
		prefix: opts.Prefix,
	}
}

// Add stores value under key, replacing any previous entry. A positive ttl
// becomes the Redis key expiration; zero keeps the entry until deleted.
func (s *Store) Add(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return data, true, nil
}

// Search scans the store's keyspace and performs a client-side substring
// match of query over keys and values. An empty query matches everything.
// Redis offers no generic substring index, so this is a full keyspace walk
// bounded by the prefix; acceptable for modest stores, but callers with
// large corpora should search through a dedicated index instead. Filters
// are ignored.
func (s *Store) Search(ctx context.Context, query string, k int, _ map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, 0, k)

	for _, batch := range chunk(keys, 100) {
		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, err
		}

		for i, raw := range values {
			if raw == nil {
				continue
			}

			value, ok := raw.(string)
			if !ok {
				continue
			}

			bare := strings.TrimPrefix(batch[i], s.prefix)

			if query == "" || strings.Contains(bare, query) || strings.Contains(value, query) {
				results = append(results, core.SearchResult{Key: bare, Value: []byte(value), Score: 1.0})

				if len(results) >= k {
					return results, nil
				}
			}
		}
	}

	return results, nil
}

// Delete removes the entry stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// scanKeys walks the prefixed keyspace with SCAN, returning keys in sorted
// order so searches are deterministic.
func (s *Store) scanKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 256).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	slices.Sort(keys)

	return keys, nil
}

func chunk(keys []string, size int) [][]string {
	var out [][]string

	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}

	if len(keys) > 0 {
		out = append(out, keys)
	}

	return out
}

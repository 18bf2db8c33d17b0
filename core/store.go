package core

import (
	"context"
	"time"
)

// Store is the minimal persistence capability shared by cache backends and
// memory layers. Implementations must be safe for concurrent use.
type Store interface {
	// Add stores value under key. A positive ttl bounds the entry lifetime;
	// zero means no expiry.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key and whether a live entry was found.
	// Expired entries are treated as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Search returns up to k entries relevant to the query, most relevant
	// first. Filters narrow candidates by metadata; implementations apply
	// them best-effort and callers should not rely on them for correctness.
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]SearchResult, error)

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// SearchResult represents a single item returned from a store search with
// relevance scoring and optional metadata.
type SearchResult struct {
	// Key identifies the stored entry.
	Key string `json:"key"`

	// Value is the stored payload.
	Value []byte `json:"value"`

	// Score indicates relevance (higher is more relevant).
	Score float64 `json:"score"`

	// Metadata contains optional contextual information.
	Metadata map[string]string `json:"metadata,omitempty"`
}

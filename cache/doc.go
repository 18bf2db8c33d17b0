// Package cache provides a memoization decorator for primitives: results
// are stored under a deterministic key derived from the input, so repeated
// executions with the same input return the cached result instead of
// re-running the wrapped primitive.
//
// The default backend is an in-process LRU with lazy TTL expiry. Remote
// backends (Redis, SQLite, anything implementing core.Store) plug in
// through RemoteBackend. Backend failures never fail the flow: the cache
// degrades to executing the wrapped primitive directly.
//
// Only successful results are cached. Errors always propagate and leave no
// entry behind.
package cache

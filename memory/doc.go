// Package memory implements layered memory for pipelines.
//
// Four layers share one capability interface (add, get, search, validate):
//
//   - Session: append-only per-session message history
//   - Window: a time-filtered read over the session history, returning only
//     recent entries (not a separate physical store)
//   - Deep: durable tag/keyword-searchable entries ranked by a pluggable
//     relevance function
//   - Fact: an immutable registry of architectural facts validated against
//     externally supplied actual values
//
// The Memory aggregate bundles the four layers and can expose them as a
// single primitive for use inside compositions. Everything works with the
// zero-dependency in-process store; the deep layer accepts any core.Store,
// so a SQLite or Redis backed store can be substituted without changing
// callers.
package memory

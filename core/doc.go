// Package core provides the foundational types and execution context used by
// FlowKit. It defines the core abstractions for:
//
//   - Primitive (the uniform unit of work every combinator, decorator and leaf implements)
//   - Context (per-invocation scope: correlation, branch state, checkpoints, baggage)
//   - The error taxonomy shared by compose, resilience, cache and memory
//   - Store (pluggable byte-oriented persistence for caches and memory layers)
//   - Codec (typed value serialization for remote stores)
//
// The package intentionally keeps implementation concerns (combinators,
// decorators, concrete stores) out of scope, exposing small interfaces to
// enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core

// Package observe provides execution instrumentation for primitives.
//
// An Observer receives callbacks at primitive entry, exit, and failure.
// Observers are attached with the Instrument decorator, which is fully
// transparent: it keeps the wrapped primitive's name and adds no behavior
// beyond the callbacks. When no observer is configured the hooks degrade
// to no-ops, never to failures.
//
// The package ships three observers that cover common needs:
//
//   - LoggingObserver writes structured lifecycle logs
//   - Metrics aggregates call counts and latencies per primitive and status
//   - NewCompositeObserver fans out to several observers at once
package observe

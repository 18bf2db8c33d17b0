// Package logging provides a minimal logging interface and adapters for FlowKit.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that combinators, decorators and stores use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - FlowKitLogger with contextual helpers (component, correlation, branch)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	rt := flowkit.New(func(o *flowkit.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging

package core

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors classify failures for errors.Is checks. The typed errors
// below carry detail and match their sentinel via Is.
var (
	// ErrConfiguration indicates an invalid composition, detected at
	// construction time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrTimeout indicates a primitive exceeded its time budget.
	ErrTimeout = errors.New("execution timed out")

	// ErrNoRoute indicates a router selected a key with no registered route.
	ErrNoRoute = errors.New("no route matched")

	// ErrStoreUnavailable indicates a cache or memory backend failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrValidation indicates input that failed a precondition. Retry
	// decorators treat it as non-retryable by default.
	ErrValidation = errors.New("validation failed")

	// ErrCircuitOpen indicates a circuit breaker rejected the call without
	// executing the wrapped primitive.
	ErrCircuitOpen = errors.New("circuit open")
)

// OperationError wraps a failure raised by a leaf primitive, typically an
// external call, preserving the primitive name for diagnostics.
type OperationError struct {
	Primitive string
	Err       error
}

// Error returns the formatted message.
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.Primitive, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error { return e.Err }

// TimeoutError reports that a primitive exceeded its time budget.
type TimeoutError struct {
	Primitive string
	Limit     time.Duration
}

// Error returns the formatted message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("primitive %s timed out after %s", e.Primitive, e.Limit)
}

// Is matches ErrTimeout so callers can classify with errors.Is.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// RoutingError reports that a router selected a key with no registered route
// and no default was configured.
type RoutingError struct {
	Router string
	Key    string
}

// Error returns the formatted message.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("router %s has no route for key %q", e.Router, e.Key)
}

// Is matches ErrNoRoute.
func (e *RoutingError) Is(target error) bool { return target == ErrNoRoute }

// ConfigurationError reports an invalid composition, such as a sequence with
// no steps or a router without a selector.
type ConfigurationError struct {
	Reason string
}

// Error returns the formatted message.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// StoreUnavailableError reports a cache or memory backend failure. Callers
// are expected to degrade gracefully rather than abort the flow.
type StoreUnavailableError struct {
	Op  string
	Err error
}

// Error returns the formatted message.
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrStoreUnavailable.
func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// ValidationError reports input that failed a precondition.
type ValidationError struct {
	Field  string
	Reason string
}

// Error returns the formatted message.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}

	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

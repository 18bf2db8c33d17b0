// Package resilience provides decorators that harden a single primitive
// against failure: retries with backoff, wall-clock timeouts, ordered
// fallbacks, circuit breaking, compensation (saga) and call budgets.
//
// Every decorator implements core.Primitive and wraps exactly one inner
// primitive, so policies stack by nesting:
//
//	guarded := resilience.NewBreaker(
//		resilience.NewRetry(
//			resilience.NewTimeout(call, 2*time.Second),
//		),
//	)
//
// Ordering matters when stacking. A retry around a timeout re-runs the
// whole timed attempt; a timeout around a retry bounds the total budget
// including backoff waits.
package resilience

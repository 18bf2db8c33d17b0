package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Backoff computes the delay to wait before retry attempt n (0-based).
type Backoff func(attempt int) time.Duration

// FixedBackoff waits the same duration before every retry.
func FixedBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// LinearBackoff waits base, 2*base, 3*base and so on.
func LinearBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration { return base * time.Duration(attempt+1) }
}

// ExponentialBackoff waits base, 2*base, 4*base and so on, doubling each
// retry. Combine with WithMaxDelay to cap the growth.
func ExponentialBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt > 31 {
			attempt = 31
		}

		return base * time.Duration(1<<uint(attempt))
	}
}

// DefaultRetryIf is the default retry predicate: every error is retryable
// except validation failures, which are deterministic and will not heal on
// their own, and context cancellation, where the caller has already given
// up.
func DefaultRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return !errors.Is(err, core.ErrValidation)
}

// Retry re-invokes one primitive when it fails, waiting between attempts
// according to a backoff policy.
//
// Key features:
//   - Configurable retry budget (additional attempts after the first)
//   - Fixed, linear or exponential backoff with optional cap and jitter
//   - Retry predicate to exempt deterministic failures
//   - Cancellation-aware backoff waits
//
// The same input and the same context are passed to every attempt; the
// wrapped primitive must therefore be safe to re-execute.
type Retry[I, O any] struct {
	core.Base
	child      core.Primitive[I, O]
	maxRetries int
	backoff    Backoff
	maxDelay   time.Duration
	jitter     float64
	retryIf    func(error) bool
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetry wraps child with retry behavior.
// Defaults: 3 retries, exponential backoff from 100ms, no jitter,
// DefaultRetryIf predicate.
func NewRetry[I, O any](child core.Primitive[I, O]) *Retry[I, O] {
	return &Retry[I, O]{
		Base:       core.NewBase("retry(" + child.Name() + ")"),
		child:      child,
		maxRetries: 3,
		backoff:    ExponentialBackoff(100 * time.Millisecond),
		retryIf:    DefaultRetryIf,
		sleep:      sleepContext,
	}
}

// WithMaxRetries sets how many additional attempts follow a failed first
// attempt. Zero disables retries. Returns the receiver for chaining.
func (r *Retry[I, O]) WithMaxRetries(n int) *Retry[I, O] {
	r.maxRetries = n
	return r
}

// WithBackoff replaces the backoff policy. Returns the receiver for chaining.
func (r *Retry[I, O]) WithBackoff(b Backoff) *Retry[I, O] {
	r.backoff = b
	return r
}

// WithMaxDelay caps the delay produced by the backoff policy. Returns the
// receiver for chaining.
func (r *Retry[I, O]) WithMaxDelay(d time.Duration) *Retry[I, O] {
	r.maxDelay = d
	return r
}

// WithJitter randomizes each delay by the given fraction (0..1) to avoid
// synchronized retries across replicas. Returns the receiver for chaining.
func (r *Retry[I, O]) WithJitter(f float64) *Retry[I, O] {
	r.jitter = f
	return r
}

// WithRetryIf replaces the retry predicate. Errors for which the predicate
// returns false propagate immediately without consuming the retry budget.
// Returns the receiver for chaining.
func (r *Retry[I, O]) WithRetryIf(fn func(error) bool) *Retry[I, O] {
	r.retryIf = fn
	return r
}

// Execute runs the wrapped primitive, retrying failures according to the
// configured policy. When the budget is exhausted, the last error is
// returned wrapped with the attempt count.
func (r *Retry[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	var lastErr error

	attempts := r.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(fc.Context, r.delay(attempt-1)); err != nil {
				return zero, err
			}
		}

		out, err := r.child.Execute(fc, in)
		if err == nil {
			if attempt > 0 {
				fc.LogInfo("retry succeeded", "primitive", r.child.Name(), "attempt", attempt+1)
			}

			return out, nil
		}

		if !r.retryIf(err) {
			return zero, err
		}

		lastErr = err

		fc.LogWarn("attempt failed", "primitive", r.child.Name(), "attempt", attempt+1, "error", err)
	}

	return zero, fmt.Errorf("retry budget exhausted after %d attempts: %w", attempts, lastErr)
}

// delay computes the wait before the given retry (0-based), applying the
// cap and jitter.
func (r *Retry[I, O]) delay(retry int) time.Duration {
	d := r.backoff(retry)
	if r.maxDelay > 0 && d > r.maxDelay {
		d = r.maxDelay
	}

	if r.jitter > 0 && d > 0 {
		f := 1 + r.jitter*(rand.Float64()*2-1)
		if f < 0 {
			f = 0
		}

		d = time.Duration(float64(d) * f)
	}

	return d
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

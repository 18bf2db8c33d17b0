package compose

import (
	"fmt"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Loop coordinates the repeated execution of a single primitive, feeding
// each iteration's output into the next iteration's input.
//
// The loop can be controlled by a maximum iteration count, a termination
// predicate evaluated on each output, an interval between iterations and an
// error handling strategy. Context cancellation is honored between
// iterations and during interval waits.
//
// Loop is ideal for:
//   - Polling until a condition is met
//   - Iterative refinement workflows
//   - Convergence checking with a bounded iteration budget
type Loop[T any] struct {
	core.Base
	child           core.Primitive[T, T]
	maxIters        int
	interval        time.Duration
	continueOnError bool
	until           func(T) bool
}

// NewLoop constructs a looping combinator around a child primitive.
// Defaults: 100 iterations, no interval, stop on first error.
func NewLoop[T any](name string, child core.Primitive[T, T]) *Loop[T] {
	return &Loop[T]{
		Base:     core.NewBase(name),
		child:    child,
		maxIters: 100,
	}
}

// WithMaxIters sets the maximum number of iterations. The loop terminates
// after this many iterations even if the predicate never fires. Returns the
// receiver for chaining.
func (l *Loop[T]) WithMaxIters(n int) *Loop[T] {
	l.maxIters = n
	return l
}

// WithInterval sets the delay between iterations. Useful for rate limiting
// and polling scenarios. Returns the receiver for chaining.
func (l *Loop[T]) WithInterval(d time.Duration) *Loop[T] {
	l.interval = d
	return l
}

// WithUntil sets a termination predicate evaluated on each iteration's
// output; the loop stops successfully once it returns true. Returns the
// receiver for chaining.
func (l *Loop[T]) WithUntil(pred func(T) bool) *Loop[T] {
	l.until = pred
	return l
}

// WithContinueOnError makes the loop log iteration failures and keep going
// instead of stopping at the first error. The failed iteration's output is
// discarded and the previous value carries into the next iteration. Returns
// the receiver for chaining.
func (l *Loop[T]) WithContinueOnError() *Loop[T] {
	l.continueOnError = true
	return l
}

// Execute runs the child up to maxIters times. The value threaded through
// iterations starts as the input; the final value is returned when the loop
// terminates by predicate or by exhausting its budget.
func (l *Loop[T]) Execute(fc *core.Context, in T) (T, error) {
	var zero T

	cur := in

	for i := 0; i < l.maxIters; i++ {
		select {
		case <-fc.Done():
			return zero, fc.Err()
		default:
		}

		out, err := l.child.Execute(fc, cur)
		if err != nil {
			if !l.continueOnError {
				return zero, fmt.Errorf("loop iteration %d failed for %s: %w", i+1, l.child.Name(), err)
			}

			fc.LogWarn("loop iteration failed, continuing", "loop", l.Name(), "iteration", i+1, "error", err)
		} else {
			cur = out

			if l.until != nil && l.until(cur) {
				return cur, nil
			}
		}

		if l.interval > 0 && i < l.maxIters-1 {
			select {
			case <-fc.Done():
				return zero, fc.Err()
			case <-time.After(l.interval):
			}
		}
	}

	return cur, nil
}

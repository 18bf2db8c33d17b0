package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Timeout bounds the wall-clock time of one primitive execution.
//
// The wrapped primitive runs in its own goroutine under a derived deadline
// context. When the deadline fires, Execute returns immediately with a
// TimeoutError (or the configured fallback); the inner goroutine keeps
// running until it observes the cancelled context. Its eventual result is
// discarded. This is cooperative cancellation: primitives that ignore
// fc.Context can outlive their budget in the background.
type Timeout[I, O any] struct {
	core.Base
	child         core.Primitive[I, O]
	limit         time.Duration
	fallbackValue *O
	fallbackPrim  core.Primitive[I, O]
}

// NewTimeout wraps child with a wall-clock limit.
func NewTimeout[I, O any](child core.Primitive[I, O], limit time.Duration) *Timeout[I, O] {
	return &Timeout[I, O]{
		Base:  core.NewBase("timeout(" + child.Name() + ")"),
		child: child,
		limit: limit,
	}
}

// WithFallbackValue makes an expired deadline yield v instead of a
// TimeoutError. Returns the receiver for chaining.
func (t *Timeout[I, O]) WithFallbackValue(v O) *Timeout[I, O] {
	t.fallbackValue = &v
	return t
}

// WithFallback makes an expired deadline execute p (with the original
// context, not the expired one) instead of returning a TimeoutError.
// Returns the receiver for chaining.
func (t *Timeout[I, O]) WithFallback(p core.Primitive[I, O]) *Timeout[I, O] {
	t.fallbackPrim = p
	return t
}

type timeoutResult[O any] struct {
	out O
	err error
}

// Execute runs the wrapped primitive under the deadline. Errors from a
// timely completion propagate unchanged; only deadline expiry produces a
// TimeoutError or triggers the fallback.
func (t *Timeout[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	tctx, cancel := context.WithTimeout(fc.Context, t.limit)
	defer cancel()

	// Buffered so the late completion of a timed-out attempt never leaks
	// the goroutine.
	resCh := make(chan timeoutResult[O], 1)

	scoped := fc.WithContext(tctx)

	go func() {
		out, err := t.child.Execute(scoped, in)
		resCh <- timeoutResult[O]{out: out, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return zero, res.err
		}

		return res.out, nil

	case <-tctx.Done():
		if !errors.Is(tctx.Err(), context.DeadlineExceeded) {
			// Parent cancellation, not a timeout.
			return zero, tctx.Err()
		}

		fc.LogWarn("primitive timed out", "primitive", t.child.Name(), "limit", t.limit)

		if t.fallbackPrim != nil {
			return t.fallbackPrim.Execute(fc, in)
		}

		if t.fallbackValue != nil {
			return *t.fallbackValue, nil
		}

		return zero, &core.TimeoutError{Primitive: t.child.Name(), Limit: t.limit}
	}
}

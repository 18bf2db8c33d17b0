package resilience

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/flowkit/core"
)

// ErrCallLimit is returned when a CallLimit budget is exhausted.
var ErrCallLimit = errors.New("call limit exceeded")

// CallLimit enforces a maximum number of executions of the wrapped
// primitive, typically to bound spend on metered external calls within one
// flow run.
type CallLimit[I, O any] struct {
	core.Base
	child core.Primitive[I, O]
	max   int

	mu    sync.Mutex
	count int
}

// NewCallLimit wraps child with a call budget.
// If max == 0, unlimited calls are allowed.
func NewCallLimit[I, O any](child core.Primitive[I, O], max int) *CallLimit[I, O] {
	return &CallLimit[I, O]{
		Base:  core.NewBase("limit(" + child.Name() + ")"),
		child: child,
		max:   max,
	}
}

// Execute consumes one unit of budget and runs the wrapped primitive, or
// fails with ErrCallLimit once the budget is spent.
func (cl *CallLimit[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	if err := cl.increment(); err != nil {
		return zero, err
	}

	return cl.child.Execute(fc, in)
}

// increment increases the call counter and returns an error if the limit is
// exceeded.
func (cl *CallLimit[I, O]) increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("%w: max %d calls for %s", ErrCallLimit, cl.max, cl.child.Name())
	}

	return nil
}

// Count returns the current number of calls made.
func (cl *CallLimit[I, O]) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.count
}

// Remaining returns how many calls are left before hitting the limit.
// Unlimited budgets report -1.
func (cl *CallLimit[I, O]) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max == 0 {
		return -1
	}

	return cl.max - cl.count
}

// Reset clears the counter, refilling the budget.
func (cl *CallLimit[I, O]) Reset() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count = 0
}

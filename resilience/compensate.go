package resilience

import (
	"fmt"

	"github.com/hupe1980/flowkit/core"
)

// SagaStep pairs a forward primitive with its compensating action. The
// compensator receives the output the forward step produced, so it can undo
// precisely what was done. A nil Compensate marks the step as having no
// side effects worth undoing.
type SagaStep[T any] struct {
	Run        core.Primitive[T, T]
	Compensate func(fc *core.Context, out T) error
}

// Saga executes steps in order and, when one fails, runs the compensators
// of every completed step in reverse order before returning the failure.
//
// Compensation is best-effort: a failing compensator is logged and the
// rollback continues with the remaining steps. The error returned by
// Execute is always the forward failure, never a compensation error.
type Saga[T any] struct {
	core.Base
	steps []SagaStep[T]
}

// NewSaga creates a compensating pipeline from steps.
//
// Returns a ConfigurationError if no steps are provided.
func NewSaga[T any](name string, steps ...SagaStep[T]) (*Saga[T], error) {
	if len(steps) == 0 {
		return nil, &core.ConfigurationError{Reason: "saga requires at least one step"}
	}

	return &Saga[T]{Base: core.NewBase(name), steps: steps}, nil
}

type completedStep[T any] struct {
	step SagaStep[T]
	out  T
}

// Execute runs the steps in order, piping outputs like a sequence. On the
// first failure, completed steps are compensated newest-first and the
// forward error is returned wrapped with the failing step name.
func (s *Saga[T]) Execute(fc *core.Context, in T) (T, error) {
	var zero T

	completed := make([]completedStep[T], 0, len(s.steps))

	cur := in

	for _, st := range s.steps {
		out, err := st.Run.Execute(fc, cur)
		if err != nil {
			s.compensate(fc, completed)

			return zero, fmt.Errorf("saga %s failed at step %s: %w", s.Name(), st.Run.Name(), err)
		}

		completed = append(completed, completedStep[T]{step: st, out: out})

		cur = out
	}

	return cur, nil
}

// compensate rolls back completed steps in reverse order. Compensator
// failures are logged and skipped so the rollback always reaches the
// earliest step.
func (s *Saga[T]) compensate(fc *core.Context, completed []completedStep[T]) {
	for i := len(completed) - 1; i >= 0; i-- {
		c := completed[i]
		if c.step.Compensate == nil {
			continue
		}

		if err := c.step.Compensate(fc, c.out); err != nil {
			fc.LogError("compensation failed", "saga", s.Name(), "step", c.step.Run.Name(), "error", err)
		}
	}
}

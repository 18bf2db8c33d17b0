package compose

import (
	"fmt"

	"github.com/hupe1980/flowkit/core"
)

// step is the type-erased unit stored by a Sequence. Erasing the boundary
// types lets sequences of different shapes flatten into one ordered list;
// type safety is preserved at construction time by Then and NewSequence.
type step struct {
	name string
	run  func(fc *core.Context, in any) (any, error)
}

// sequencer is implemented by every Sequence instantiation so Then and
// NewSequence can flatten nested chains into a single step list.
type sequencer interface {
	flatten() []step
}

// Sequence coordinates the execution of multiple primitives in order.
//
// This combinator enables pipeline workflows by executing its steps one after
// another, piping each step's output into the next step's input. All steps
// share the same Context, so state written by an early step is visible to
// later ones.
//
// Key features:
//   - Ordered execution with output-to-input piping
//   - Early termination on errors
//   - Shared context state across steps
//   - Checkpoint recording after each completed step
//   - Automatic flattening of nested sequences
//
// Sequence is ideal for:
//   - Multi-step data processing pipelines
//   - Workflows requiring specific execution order
//   - Complex tasks broken into specialized stages
//   - Scenarios where step outputs build upon each other
type Sequence[I, O any] struct {
	core.Base
	steps []step
}

// Then composes two primitives into a Sequence that feeds the output of
// first into second. The boundary type B is checked by the compiler, so a
// mismatched chain fails at compile time rather than at run time.
//
// Chains built with Then flatten: composing two sequences yields one flat
// step list, never a tree of nested sequences.
//
//	pipeline := compose.Then(compose.Then(parse, transform), format)
func Then[A, B, C any](first core.Primitive[A, B], second core.Primitive[B, C]) *Sequence[A, C] {
	steps := stepsOf(first)
	steps = append(steps, stepsOf(second)...)

	return &Sequence[A, C]{
		Base:  core.NewBase(first.Name() + ">>" + second.Name()),
		steps: steps,
	}
}

// NewSequence creates an ordered pipeline from steps sharing one value type.
// Use Then instead when the value type changes between steps.
//
// Returns a ConfigurationError if no steps are provided.
func NewSequence[T any](name string, steps ...core.Primitive[T, T]) (*Sequence[T, T], error) {
	if len(steps) == 0 {
		return nil, &core.ConfigurationError{Reason: "sequence requires at least one step"}
	}

	all := make([]step, 0, len(steps))
	for _, s := range steps {
		all = append(all, stepsOf(s)...)
	}

	return &Sequence[T, T]{Base: core.NewBase(name), steps: all}, nil
}

// stepsOf returns the flattened step list for a primitive. Sequences
// contribute their own steps; anything else becomes a single step. The
// returned slice is always a fresh copy so later appends cannot corrupt
// the source sequence.
func stepsOf[A, B any](p core.Primitive[A, B]) []step {
	if seq, ok := any(p).(sequencer); ok {
		src := seq.flatten()
		out := make([]step, len(src))
		copy(out, src)

		return out
	}

	return []step{{name: p.Name(), run: runStep(p)}}
}

// runStep wraps a typed primitive into the type-erased step signature.
func runStep[A, B any](p core.Primitive[A, B]) func(fc *core.Context, in any) (any, error) {
	return func(fc *core.Context, in any) (any, error) {
		tin, ok := in.(A)
		if !ok && in != nil {
			return nil, &core.ConfigurationError{Reason: fmt.Sprintf("step %s received unexpected input type %T", p.Name(), in)}
		}

		return p.Execute(fc, tin)
	}
}

func (s *Sequence[I, O]) flatten() []step { return s.steps }

// StepNames returns the names of the flattened steps in execution order.
func (s *Sequence[I, O]) StepNames() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.name
	}

	return names
}

// Execute runs all steps in order with the shared context. The first error
// stops further processing immediately; a checkpoint is recorded after each
// step that completes.
func (s *Sequence[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	cur := any(in)

	for _, st := range s.steps {
		out, err := st.run(fc, cur)
		if err != nil {
			return zero, fmt.Errorf("sequence execution failed at step %s: %w", st.name, err)
		}

		fc.Checkpoint(st.name)

		cur = out
	}

	out, ok := cur.(O)
	if !ok {
		if cur == nil {
			return zero, nil
		}

		return zero, &core.ConfigurationError{Reason: fmt.Sprintf("sequence %s produced unexpected output type %T", s.Name(), cur)}
	}

	return out, nil
}

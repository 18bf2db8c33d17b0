package compose

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flowkit/core"
)

// Parallel coordinates the concurrent execution of multiple branches over
// the same input.
//
// This combinator enables fan-out processing by executing its branches
// simultaneously with proper branch isolation. Each branch receives a child
// context derived via NewChild, so state written by one branch can never
// clobber a sibling's.
//
// Key features:
//   - Concurrent execution via errgroup
//   - Branch isolation for state management
//   - Fail-fast semantics: the first error cancels remaining branches
//   - Results ordered by branch position, independent of completion order
//   - Optional concurrency limit for resource-bound workloads
//   - Hierarchical branch naming for trace reconstruction
//
// Parallel is ideal for:
//   - Independent task processing over one input
//   - I/O bound operations that can run concurrently
//   - Data gathering from multiple sources
//   - Performance optimization through parallelization
//
// Use ParallelSettled instead when every branch must run to completion and
// per-branch failures should be reported individually.
type Parallel[I, O any] struct {
	core.Base
	branches       []core.Primitive[I, O]
	maxConcurrency int
}

// NewParallel creates a fail-fast concurrent fan-out over branches.
//
// Returns a ConfigurationError if no branches are provided.
func NewParallel[I, O any](name string, branches ...core.Primitive[I, O]) (*Parallel[I, O], error) {
	if len(branches) == 0 {
		return nil, &core.ConfigurationError{Reason: "parallel requires at least one branch"}
	}

	return &Parallel[I, O]{Base: core.NewBase(name), branches: branches}, nil
}

// WithMaxConcurrency bounds the number of branches executing at once.
// Zero or negative means unbounded. Returns the receiver for chaining.
func (p *Parallel[I, O]) WithMaxConcurrency(n int) *Parallel[I, O] {
	p.maxConcurrency = n
	return p
}

// Execute runs all branches concurrently and returns their outputs ordered
// by branch position. The first branch error cancels the shared group
// context, aborts the fan-out and is returned wrapped with the branch name.
func (p *Parallel[I, O]) Execute(fc *core.Context, in I) ([]O, error) {
	results := make([]O, len(p.branches))

	g, gctx := errgroup.WithContext(fc.Context)
	if p.maxConcurrency > 0 {
		g.SetLimit(p.maxConcurrency)
	}

	for i, br := range p.branches {
		g.Go(func() error {
			// Isolated branch context; the group context propagates
			// cancellation when a sibling fails.
			child := fc.NewChild(buildBranchPath(fc.Branch, p.Name()+"."+br.Name()))
			child.Context = gctx

			out, err := br.Execute(child, in)
			if err != nil {
				return fmt.Errorf("parallel execution failed for branch %s: %w", br.Name(), err)
			}

			results[i] = out

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Outcome is the per-branch result of a ParallelSettled execution. Exactly
// one of Value and Err is meaningful; Ok reports which.
type Outcome[O any] struct {
	// Branch is the name of the branch that produced this outcome.
	Branch string

	// Value is the branch output when Err is nil.
	Value O

	// Err is the branch failure, if any.
	Err error
}

// Ok reports whether the branch succeeded.
func (o Outcome[O]) Ok() bool { return o.Err == nil }

// ParallelSettled coordinates concurrent branches that all run to
// completion. Unlike Parallel it never cancels siblings on failure; each
// branch's success or error is captured in its Outcome slot and the
// combinator itself only fails on construction misuse.
type ParallelSettled[I, O any] struct {
	core.Base
	branches       []core.Primitive[I, O]
	maxConcurrency int
}

// NewParallelSettled creates a settle-all concurrent fan-out over branches.
//
// Returns a ConfigurationError if no branches are provided.
func NewParallelSettled[I, O any](name string, branches ...core.Primitive[I, O]) (*ParallelSettled[I, O], error) {
	if len(branches) == 0 {
		return nil, &core.ConfigurationError{Reason: "parallel requires at least one branch"}
	}

	return &ParallelSettled[I, O]{Base: core.NewBase(name), branches: branches}, nil
}

// WithMaxConcurrency bounds the number of branches executing at once.
// Zero or negative means unbounded. Returns the receiver for chaining.
func (p *ParallelSettled[I, O]) WithMaxConcurrency(n int) *ParallelSettled[I, O] {
	p.maxConcurrency = n
	return p
}

// Execute runs every branch to completion and returns one Outcome per
// branch, ordered by branch position regardless of completion order.
func (p *ParallelSettled[I, O]) Execute(fc *core.Context, in I) ([]Outcome[O], error) {
	outcomes := make([]Outcome[O], len(p.branches))

	var g errgroup.Group
	if p.maxConcurrency > 0 {
		g.SetLimit(p.maxConcurrency)
	}

	for i, br := range p.branches {
		g.Go(func() error {
			child := fc.NewChild(buildBranchPath(fc.Branch, p.Name()+"."+br.Name()))

			out, err := br.Execute(child, in)
			outcomes[i] = Outcome[O]{Branch: br.Name(), Value: out, Err: err}

			return nil
		})
	}

	// Branch failures are reported through outcomes, never through Wait.
	_ = g.Wait()

	return outcomes, nil
}

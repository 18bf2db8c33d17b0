// Package flowkit provides a high-level façade over the composition core and
// its services (memory, observation & logging) enabling rapid construction of
// resilient execution flows. Most applications interact with this package by:
//  1. Creating a Runtime via New() (optionally overriding logger, observer & memory)
//  2. Composing primitives (sequences, parallels, routers, loops, decorators)
//  3. Executing them via Run, or directly with a context from NewContext
//
// The façade delegates composition to the core, compose and resilience
// packages while keeping setup and usage ergonomics concise. All defaults are
// safe for local development and testing; production deployments typically
// supply durable store implementations and a structured logger.
package flowkit

import (
	"context"

	"github.com/hupe1980/flowkit/core"
	"github.com/hupe1980/flowkit/logging"
	"github.com/hupe1980/flowkit/memory"
	"github.com/hupe1980/flowkit/observe"
)

// Re-export key core types so callers can compose and run simple flows
// without importing the core package directly.

type (
	Context        = core.Context
	ContextOptions = core.ContextOptions
	Checkpoint     = core.Checkpoint
)

// Primitive is the unit of execution accepted by Run.
type Primitive[I, O any] = core.Primitive[I, O]

// Options configures the Runtime instance.
type Options struct {
	// Logger receives structured output from every flow started through
	// the runtime. Defaults to NoOp logger if nil.
	Logger logging.Logger

	// Observer receives lifecycle callbacks for every primitive executed
	// via Run. Defaults to a no-op observer if nil.
	Observer observe.Observer

	// Memory is the layered memory shared by flows (defaults to an
	// in-memory configuration if not provided).
	Memory *memory.Memory
}

// Runtime is the high-level façade aggregating the logger, observer and
// memory shared by a family of flows.
type Runtime struct {
	opts Options
}

// New creates a new Runtime with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		Observer: observe.NoopObserver{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Observer == nil {
		opts.Observer = observe.NoopObserver{}
	}

	if opts.Memory == nil {
		opts.Memory = memory.New()
	}

	return &Runtime{opts: opts}
}

// Memory returns the layered memory shared by flows.
func (r *Runtime) Memory() *memory.Memory { return r.opts.Memory }

// Observer returns the configured observer.
func (r *Runtime) Observer() observe.Observer { return r.opts.Observer }

// NewContext constructs a root flow context carrying the runtime logger.
// Caller options are applied after the runtime defaults and may override them.
func (r *Runtime) NewContext(ctx context.Context, optFns ...func(o *core.ContextOptions)) *core.Context {
	merged := make([]func(o *core.ContextOptions), 0, len(optFns)+1)
	merged = append(merged, func(o *core.ContextOptions) { o.Logger = r.opts.Logger })
	merged = append(merged, optFns...)

	return core.NewContext(ctx, merged...)
}

// Run executes a primitive under a fresh flow context derived from ctx,
// reporting lifecycle events to the runtime observer. It is a package
// function because methods cannot carry type parameters.
func Run[I, O any](ctx context.Context, r *Runtime, p core.Primitive[I, O], in I) (O, error) {
	return observe.NewInstrument(p, r.opts.Observer).Execute(r.NewContext(ctx), in)
}

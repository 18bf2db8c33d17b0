package observe

import (
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Instrument wraps a primitive with observer callbacks at entry, exit, and
// failure. It is transparent: Name returns the wrapped primitive's name and
// execution behavior is unchanged, so instrumented and plain primitives are
// interchangeable in a composition.
type Instrument[I, O any] struct {
	child    core.Primitive[I, O]
	observer Observer

	now func() time.Time
}

// NewInstrument attaches observer to child. A nil observer degrades to a
// no-op.
func NewInstrument[I, O any](child core.Primitive[I, O], observer Observer) *Instrument[I, O] {
	if observer == nil {
		observer = NoopObserver{}
	}

	return &Instrument[I, O]{
		child:    child,
		observer: observer,
		now:      time.Now,
	}
}

// Name returns the wrapped primitive's name.
func (p *Instrument[I, O]) Name() string {
	return p.child.Name()
}

// Execute invokes the wrapped primitive, surrounding the call with observer
// callbacks. The result and error pass through untouched.
func (p *Instrument[I, O]) Execute(fc *core.Context, in I) (O, error) {
	p.observer.OnEnter(fc, p.child.Name(), in)

	start := p.now()
	out, err := p.child.Execute(fc, in)
	duration := p.now().Sub(start)

	if err != nil {
		p.observer.OnError(fc, p.child.Name(), err, duration)

		return out, err
	}

	p.observer.OnExit(fc, p.child.Name(), out, duration)

	return out, nil
}

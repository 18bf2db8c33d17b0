package core

// Primitive is the uniform unit of work in FlowKit. Every combinator,
// decorator and leaf operation implements it, which lets any primitive wrap
// any other regardless of what it does internally.
//
// Implementations must be safe for concurrent use when shared across
// goroutines; combinators may execute the same primitive from several
// branches at once.
type Primitive[I, O any] interface {
	// Name returns the identifier used in logs, metrics and wrapped errors.
	Name() string

	// Execute runs the unit of work with the given flow context and input.
	// Implementations should honor cancellation via fc.Context.
	Execute(fc *Context, in I) (O, error)
}

// Func adapts a plain function into a named Primitive. It is the quickest
// way to lift existing code into a flow:
//
//	double := core.NewFunc("double", func(fc *core.Context, n int) (int, error) {
//		return n * 2, nil
//	})
type Func[I, O any] struct {
	name string
	fn   func(fc *Context, in I) (O, error)
}

// NewFunc creates a Primitive from a function.
func NewFunc[I, O any](name string, fn func(fc *Context, in I) (O, error)) *Func[I, O] {
	return &Func[I, O]{name: name, fn: fn}
}

// Name returns the primitive name.
func (f *Func[I, O]) Name() string { return f.name }

// Execute invokes the wrapped function.
func (f *Func[I, O]) Execute(fc *Context, in I) (O, error) { return f.fn(fc, in) }

// Base provides the shared identity plumbing for primitives: a name plus an
// optional human readable description. Embed it and implement Execute.
type Base struct {
	name        string
	description string
}

// NewBase constructs a Base with the given name.
func NewBase(name string) Base { return Base{name: name} }

// Name returns the primitive name.
func (b *Base) Name() string { return b.name }

// Description returns the optional human readable description.
func (b *Base) Description() string { return b.description }

// SetDescription sets a human readable description.
func (b *Base) SetDescription(d string) { b.description = d }

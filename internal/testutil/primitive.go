package testutil

import (
	"errors"
	"sync/atomic"

	"github.com/hupe1980/flowkit/core"
)

// Counting wraps a function with an atomic execution counter. Safe for
// concurrent use, so it also serves tests that hammer a primitive from
// several goroutines.
type Counting struct {
	core.Base
	calls atomic.Int64
	fn    func(fc *core.Context, in string) (string, error)
}

// NewCounting creates a counting primitive around fn.
func NewCounting(name string, fn func(fc *core.Context, in string) (string, error)) *Counting {
	return &Counting{Base: core.NewBase(name), fn: fn}
}

// Execute invokes the wrapped function and increments the counter.
func (p *Counting) Execute(fc *core.Context, in string) (string, error) {
	p.calls.Add(1)
	return p.fn(fc, in)
}

// Calls returns how many times Execute ran.
func (p *Counting) Calls() int64 { return p.calls.Load() }

// Flaky fails its first Failures calls with Err, then echoes the input with
// an ":ok" suffix. Calls counts executions.
type Flaky struct {
	Failures int
	Err      error
	Calls    int
}

// NewFlaky creates a primitive that fails the given number of times before
// recovering.
func NewFlaky(failures int, err error) *Flaky {
	return &Flaky{Failures: failures, Err: err}
}

// Name implements core.Primitive.
func (f *Flaky) Name() string { return "flaky" }

// Execute implements core.Primitive.
func (f *Flaky) Execute(_ *core.Context, in string) (string, error) {
	f.Calls++
	if f.Calls <= f.Failures {
		return "", f.Err
	}

	return in + ":ok", nil
}

// Switchable fails while Failing is true and counts executions. Toggle
// Failing between calls to simulate an outage that heals.
type Switchable struct {
	Failing bool
	Calls   int
}

// NewSwitchable creates a primitive with the given initial failure mode.
func NewSwitchable(failing bool) *Switchable {
	return &Switchable{Failing: failing}
}

// Name implements core.Primitive.
func (s *Switchable) Name() string { return "backend" }

// Execute implements core.Primitive.
func (s *Switchable) Execute(_ *core.Context, in string) (string, error) {
	s.Calls++
	if s.Failing {
		return "", errors.New("backend down")
	}

	return in + ":ok", nil
}

package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// BreakerState identifies a circuit breaker state.
type BreakerState int

const (
	// StateClosed lets calls through and counts consecutive failures.
	StateClosed BreakerState = iota
	// StateOpen rejects calls without executing the wrapped primitive.
	StateOpen
	// StateHalfOpen admits a single trial call after the cooldown.
	StateHalfOpen
)

// String returns the string representation of the breaker state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker sheds load from a persistently failing primitive.
//
// State machine: in closed state calls pass through and consecutive
// failures are counted; reaching the threshold opens the circuit. While
// open, calls are rejected immediately with ErrCircuitOpen. After the
// cooldown one trial call is admitted (half-open); its success closes the
// circuit, its failure reopens it and restarts the cooldown.
//
// Rejections are cheap and instantaneous, which is the point: a broken
// dependency is not hammered while it recovers, and callers fail fast
// instead of queueing up on it.
type Breaker[I, O any] struct {
	core.Base
	child     core.Primitive[I, O]
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu            sync.Mutex
	state         BreakerState
	failures      int
	openedAt      time.Time
	trialInFlight bool
}

// NewBreaker wraps child with a circuit breaker.
// Defaults: 5 consecutive failures to open, 30s cooldown.
func NewBreaker[I, O any](child core.Primitive[I, O]) *Breaker[I, O] {
	return &Breaker[I, O]{
		Base:      core.NewBase("breaker(" + child.Name() + ")"),
		child:     child,
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
}

// WithFailureThreshold sets how many consecutive failures open the circuit.
// Returns the receiver for chaining.
func (b *Breaker[I, O]) WithFailureThreshold(n int) *Breaker[I, O] {
	b.threshold = n
	return b
}

// WithCooldown sets how long the circuit stays open before admitting a
// trial call. Returns the receiver for chaining.
func (b *Breaker[I, O]) WithCooldown(d time.Duration) *Breaker[I, O] {
	b.cooldown = d
	return b
}

// State returns the current breaker state.
func (b *Breaker[I, O]) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Execute runs the wrapped primitive subject to the breaker state. A
// rejected call returns ErrCircuitOpen without executing the primitive;
// an admitted call's error propagates unchanged.
func (b *Breaker[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	trial, err := b.allow()
	if err != nil {
		return zero, err
	}

	if trial {
		fc.LogInfo("circuit half-open, admitting trial", "breaker", b.Name())
	}

	out, execErr := b.child.Execute(fc, in)

	if from, to, changed := b.record(execErr == nil, trial); changed {
		fc.LogWarn("circuit state changed", "breaker", b.Name(), "from", from.String(), "to", to.String())
	}

	if execErr != nil {
		return zero, execErr
	}

	return out, nil
}

// allow decides whether a call may proceed and whether it is the half-open
// trial. Rejections carry ErrCircuitOpen.
func (b *Breaker[I, O]) allow() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, fmt.Errorf("circuit breaker %s rejected call: %w", b.Name(), core.ErrCircuitOpen)
		}

		b.state = StateHalfOpen
		b.trialInFlight = true

		return true, nil

	case StateHalfOpen:
		if b.trialInFlight {
			return false, fmt.Errorf("circuit breaker %s rejected call: %w", b.Name(), core.ErrCircuitOpen)
		}

		b.trialInFlight = true

		return true, nil

	default:
		return false, nil
	}
}

// record applies a call outcome to the state machine and reports any
// transition.
func (b *Breaker[I, O]) record(success, trial bool) (BreakerState, BreakerState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := b.state

	if trial {
		b.trialInFlight = false
	}

	if success {
		b.state = StateClosed
		b.failures = 0
	} else if trial || b.state == StateHalfOpen {
		// A failed trial reopens immediately and restarts the cooldown.
		b.state = StateOpen
		b.openedAt = b.now()
		b.failures = 0
	} else {
		b.failures++
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}

	return from, b.state, from != b.state
}

package core

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/flowkit/logging"
)

// Checkpoint is a named progress marker recorded during execution. Sequences
// record one after each completed step so a run's trajectory can be
// reconstructed from the context alone.
type Checkpoint struct {
	Name string
	At   time.Time
}

// Context carries the execution scope of one flow invocation. It aggregates:
//
//   - The ambient cancellation context.Context
//   - Correlation, trace and span identifiers
//   - The branch label for nested parallel paths
//   - A mutable state map shared along a branch
//   - Ordered checkpoints recording progress
//   - Metadata annotations and baggage propagated into child scopes
//
// A Context is passed by pointer through a flow. Sequential steps share it so
// state mutations are visible downstream. Parallel branches must use NewChild,
// which snapshots state into an isolated copy so sibling branches cannot
// produce lost updates.
type Context struct {
	// Context is the ambient cancellation context for this invocation.
	Context context.Context

	// TraceID groups every span of one flow run.
	TraceID string

	// SpanID identifies this execution scope within the trace.
	SpanID string

	// Branch is the hierarchical path of this scope, e.g. "fanout.fetch".
	Branch string

	// Metadata holds free-form annotations for this invocation.
	Metadata map[string]string

	// Baggage holds key/value pairs propagated into child scopes.
	Baggage map[string]string

	correlationID string
	logger        logging.Logger
	scratch       *scratch
}

// scratch is the mutable per-branch portion of a Context. Wrapping decorators
// (timeout, retry) share it by reference via WithContext; child branches get
// a fresh copy via NewChild.
type scratch struct {
	mu          sync.Mutex
	state       map[string]any
	checkpoints []Checkpoint
}

// ContextOptions configures construction of a root Context.
type ContextOptions struct {
	// CorrelationID links log lines and traces across systems. A random
	// UUID is assigned when empty. Once set it never changes for the
	// lifetime of the flow.
	CorrelationID string

	// TraceID overrides the generated trace identifier.
	TraceID string

	// Metadata seeds the metadata annotations.
	Metadata map[string]string

	// Baggage seeds the propagated baggage.
	Baggage map[string]string

	// Logger receives structured log output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// NewContext constructs a root Context for one flow invocation.
func NewContext(ctx context.Context, optFns ...func(o *ContextOptions)) *Context {
	opts := ContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.CorrelationID == "" {
		opts.CorrelationID = uuid.NewString()
	}

	if opts.TraceID == "" {
		opts.TraceID = uuid.NewString()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	md := map[string]string{}
	maps.Copy(md, opts.Metadata)

	bg := map[string]string{}
	maps.Copy(bg, opts.Baggage)

	return &Context{
		Context:       ctx,
		TraceID:       opts.TraceID,
		SpanID:        uuid.NewString(),
		Metadata:      md,
		Baggage:       bg,
		correlationID: opts.CorrelationID,
		logger:        opts.Logger,
		scratch:       &scratch{state: map[string]any{}},
	}
}

// Background returns a root Context over context.Background. Intended for
// tests and examples.
func Background() *Context { return NewContext(context.Background()) }

// CorrelationID returns the immutable correlation identifier.
func (fc *Context) CorrelationID() string { return fc.correlationID }

// Logger returns the configured logger, never nil.
func (fc *Context) Logger() logging.Logger { return fc.logger }

// Done returns a channel closed when the ambient context is cancelled.
func (fc *Context) Done() <-chan struct{} { return fc.Context.Done() }

// Err returns the cancellation error (if any) from the ambient context.
func (fc *Context) Err() error { return fc.Context.Err() }

// LogDebug logs a debug message.
func (fc *Context) LogDebug(msg string, args ...any) { fc.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (fc *Context) LogInfo(msg string, args ...any) { fc.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (fc *Context) LogWarn(msg string, args ...any) { fc.logger.Warn(msg, args...) }

// LogError logs an error message.
func (fc *Context) LogError(msg string, args ...any) { fc.logger.Error(msg, args...) }

// SetState stores a value in the branch-scoped state map.
func (fc *Context) SetState(k string, v any) {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	fc.scratch.state[k] = v
}

// GetState returns the value stored under k, if present.
func (fc *Context) GetState(k string) (any, bool) {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	v, ok := fc.scratch.state[k]

	return v, ok
}

// DeleteState removes k from the state map.
func (fc *Context) DeleteState(k string) {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	delete(fc.scratch.state, k)
}

// ApplyState merges all pairs from d into the state map.
func (fc *Context) ApplyState(d map[string]any) {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	maps.Copy(fc.scratch.state, d)
}

// StateSnapshot returns a copy of the current state map.
func (fc *Context) StateSnapshot() map[string]any {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	snap := make(map[string]any, len(fc.scratch.state))
	maps.Copy(snap, fc.scratch.state)

	return snap
}

// Checkpoint appends a named progress marker stamped with the current time.
func (fc *Context) Checkpoint(name string) {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	fc.scratch.checkpoints = append(fc.scratch.checkpoints, Checkpoint{Name: name, At: time.Now().UTC()})
}

// Checkpoints returns a copy of the ordered checkpoint list.
func (fc *Context) Checkpoints() []Checkpoint {
	fc.scratch.mu.Lock()
	defer fc.scratch.mu.Unlock()

	out := make([]Checkpoint, len(fc.scratch.checkpoints))
	copy(out, fc.scratch.checkpoints)

	return out
}

// NewChild derives an isolated context for a nested branch. The child keeps
// the correlation and trace linkage, starts from a snapshot of the parent
// state and an empty checkpoint list, so its writes stay invisible to the
// parent and to sibling branches. An empty branch keeps the parent's label.
func (fc *Context) NewChild(branch string) *Context {
	if branch == "" {
		branch = fc.Branch
	}

	md := map[string]string{}
	maps.Copy(md, fc.Metadata)

	bg := map[string]string{}
	maps.Copy(bg, fc.Baggage)

	return &Context{
		Context:       fc.Context,
		TraceID:       fc.TraceID,
		SpanID:        uuid.NewString(),
		Branch:        branch,
		Metadata:      md,
		Baggage:       bg,
		correlationID: fc.correlationID,
		logger:        fc.logger,
		scratch:       &scratch{state: fc.StateSnapshot()},
	}
}

// WithContext returns a copy bound to ctx that shares this context's state
// and checkpoints. Decorators use it to apply deadlines or cancellation
// without opening a new branch scope.
func (fc *Context) WithContext(ctx context.Context) *Context {
	c := *fc
	c.Context = ctx

	return &c
}

package observe

import (
	"time"

	"github.com/hupe1980/flowkit/core"
	"github.com/hupe1980/flowkit/logging"
)

// Observer receives callbacks around primitive execution.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay execution. Observers must never
// panic: a callback failure would otherwise masquerade as an execution
// failure.
type Observer interface {
	// OnEnter is called before the wrapped primitive executes.
	OnEnter(fc *core.Context, primitive string, in any)

	// OnExit is called after the wrapped primitive returns successfully.
	OnExit(fc *core.Context, primitive string, out any, duration time.Duration)

	// OnError is called after the wrapped primitive returns an error.
	OnError(fc *core.Context, primitive string, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing. It is the default when no
// observer is configured, and a convenient embed for observers that only
// care about a subset of callbacks.
type NoopObserver struct{}

func (NoopObserver) OnEnter(fc *core.Context, primitive string, in any) {}

func (NoopObserver) OnExit(fc *core.Context, primitive string, out any, d time.Duration) {}

func (NoopObserver) OnError(fc *core.Context, primitive string, err error, d time.Duration) {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))

	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}

	if len(filtered) == 0 {
		return NoopObserver{}
	}

	if len(filtered) == 1 {
		return filtered[0]
	}

	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnEnter(fc *core.Context, primitive string, in any) {
	for _, o := range c.observers {
		o.OnEnter(fc, primitive, in)
	}
}

func (c *CompositeObserver) OnExit(fc *core.Context, primitive string, out any, d time.Duration) {
	for _, o := range c.observers {
		o.OnExit(fc, primitive, out, d)
	}
}

func (c *CompositeObserver) OnError(fc *core.Context, primitive string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnError(fc, primitive, err, d)
	}
}

// LoggingObserver writes structured lifecycle logs for every instrumented
// call.
type LoggingObserver struct {
	logger logging.Logger
}

// NewLoggingObserver creates an Observer that logs primitive lifecycle
// events through the given logger. If logger is nil, a default structured
// logger writing to stdout is used.
func NewLoggingObserver(logger logging.Logger) Observer {
	if logger == nil {
		logger = logging.NewDefaultSlogLogger()
	}

	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEnter(fc *core.Context, primitive string, in any) {
	o.logger.Debug("primitive started",
		"primitive", primitive,
		"correlation_id", fc.CorrelationID(),
		"branch", fc.Branch,
	)
}

func (o *LoggingObserver) OnExit(fc *core.Context, primitive string, out any, d time.Duration) {
	o.logger.Debug("primitive completed",
		"primitive", primitive,
		"correlation_id", fc.CorrelationID(),
		"branch", fc.Branch,
		"duration_ms", d.Milliseconds(),
	)
}

func (o *LoggingObserver) OnError(fc *core.Context, primitive string, err error, d time.Duration) {
	o.logger.Error("primitive failed",
		"primitive", primitive,
		"correlation_id", fc.CorrelationID(),
		"branch", fc.Branch,
		"duration_ms", d.Milliseconds(),
		"error", err.Error(),
	)
}

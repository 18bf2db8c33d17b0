package resilience

import (
	"fmt"

	"github.com/hupe1980/flowkit/core"
)

// Fallback tries a primary primitive and, when it returns an error, tries
// each fallback in order until one succeeds. If every candidate fails, the
// last error is returned wrapped with the attempt trail.
//
// Only returned errors trigger fallbacks. A successful result whose content
// is semantically wrong (an empty answer, a degraded payload) is still a
// success; callers who want content-based failover must surface such cases
// as errors first.
type Fallback[I, O any] struct {
	core.Base
	primary   core.Primitive[I, O]
	fallbacks []core.Primitive[I, O]
}

// NewFallback wraps primary with an ordered list of alternatives.
//
// Returns a ConfigurationError if no fallbacks are provided.
func NewFallback[I, O any](primary core.Primitive[I, O], fallbacks ...core.Primitive[I, O]) (*Fallback[I, O], error) {
	if len(fallbacks) == 0 {
		return nil, &core.ConfigurationError{Reason: "fallback requires at least one alternative"}
	}

	return &Fallback[I, O]{
		Base:      core.NewBase("fallback(" + primary.Name() + ")"),
		primary:   primary,
		fallbacks: fallbacks,
	}, nil
}

// Execute runs the primary and, on error, the fallbacks in order. Each
// candidate receives the original input and the caller's context.
func (f *Fallback[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	out, err := f.primary.Execute(fc, in)
	if err == nil {
		return out, nil
	}

	fc.LogWarn("primary failed, trying fallbacks", "primitive", f.primary.Name(), "error", err)

	lastErr := err

	for i, fb := range f.fallbacks {
		out, ferr := fb.Execute(fc, in)
		if ferr == nil {
			fc.LogInfo("fallback succeeded", "primitive", fb.Name(), "position", i+1)
			return out, nil
		}

		fc.LogWarn("fallback failed", "primitive", fb.Name(), "position", i+1, "error", ferr)

		lastErr = ferr
	}

	return zero, fmt.Errorf("fallback exhausted after primary and %d alternatives: %w", len(f.fallbacks), lastErr)
}

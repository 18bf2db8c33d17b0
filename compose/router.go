package compose

import (
	"fmt"

	"github.com/hupe1980/flowkit/core"
)

// RouteFunc inspects the input (and context) and returns the key of the
// route that should handle it.
type RouteFunc[I any] func(fc *core.Context, in I) (string, error)

// Router dispatches each input to exactly one of several primitives based
// on a selector function. The chosen route executes with the caller's
// context, so it behaves like an inlined step rather than a new branch.
//
// A selector may return a key with no registered route. With a default
// configured via WithDefault the default handles it; otherwise Execute
// returns a RoutingError.
type Router[I, O any] struct {
	core.Base
	selector RouteFunc[I]
	routes   map[string]core.Primitive[I, O]
	fallback core.Primitive[I, O]
}

// NewRouter creates a Router from a selector and an initial route table.
//
// Returns a ConfigurationError if the selector is nil or the route table is
// empty.
func NewRouter[I, O any](name string, selector RouteFunc[I], routes map[string]core.Primitive[I, O]) (*Router[I, O], error) {
	if selector == nil {
		return nil, &core.ConfigurationError{Reason: "router requires a selector"}
	}

	if len(routes) == 0 {
		return nil, &core.ConfigurationError{Reason: "router requires at least one route"}
	}

	table := make(map[string]core.Primitive[I, O], len(routes))
	for k, p := range routes {
		table[k] = p
	}

	return &Router[I, O]{Base: core.NewBase(name), selector: selector, routes: table}, nil
}

// Route registers an additional route. Registering an existing key replaces
// the previous primitive. Returns the receiver for chaining.
func (r *Router[I, O]) Route(key string, p core.Primitive[I, O]) *Router[I, O] {
	r.routes[key] = p
	return r
}

// WithDefault sets the primitive that handles selector keys with no
// registered route. Returns the receiver for chaining.
func (r *Router[I, O]) WithDefault(p core.Primitive[I, O]) *Router[I, O] {
	r.fallback = p
	return r
}

// Execute selects a route for the input and runs it. The routing decision is
// recorded as a checkpoint so the taken path shows up in the trajectory.
func (r *Router[I, O]) Execute(fc *core.Context, in I) (O, error) {
	var zero O

	key, err := r.selector(fc, in)
	if err != nil {
		return zero, fmt.Errorf("router %s selection failed: %w", r.Name(), err)
	}

	target, ok := r.routes[key]
	if !ok {
		if r.fallback == nil {
			return zero, &core.RoutingError{Router: r.Name(), Key: key}
		}

		fc.LogDebug("no route matched, using default", "router", r.Name(), "key", key)

		target = r.fallback
	}

	fc.Checkpoint(r.Name() + ":" + key)

	out, err := target.Execute(fc, in)
	if err != nil {
		return zero, fmt.Errorf("router %s route %s failed: %w", r.Name(), key, err)
	}

	return out, nil
}

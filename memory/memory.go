package memory

import (
	"fmt"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// LayerName selects a memory layer in requests.
type LayerName string

const (
	LayerSession LayerName = "session"
	LayerWindow  LayerName = "window"
	LayerDeep    LayerName = "deep"
	LayerFact    LayerName = "fact"
)

// Op names one of the four shared layer capabilities.
type Op string

const (
	OpAdd      Op = "add"
	OpGet      Op = "get"
	OpSearch   Op = "search"
	OpValidate Op = "validate"
)

// Request addresses one operation to one layer. The fields read depend on
// the operation: Record for add, Key for get, Query for search, and
// Key/Actual for validate.
type Request struct {
	Layer  LayerName `json:"layer"`
	Op     Op        `json:"op"`
	Record Record    `json:"record,omitempty"`
	Key    string    `json:"key,omitempty"`
	Actual any       `json:"actual,omitempty"`
	Query  Query     `json:"query,omitempty"`
}

// Response carries the result of a Request. Exactly one field is populated
// depending on the operation.
type Response struct {
	Records []Record `json:"records,omitempty"`
	Results []Scored `json:"results,omitempty"`
	Report  *Report  `json:"report,omitempty"`
}

// Options configures construction of a Memory.
type Options struct {
	// DeepStore backs the deep layer. Defaults to a fresh in-process
	// store; substitute a SQLite or Redis store for durability across
	// restarts or processes.
	DeepStore core.Store

	// Ranker orders deep search results. Defaults to keyword matching.
	Ranker Ranker

	// Window bounds the window layer's recent view. Defaults to
	// DefaultWindow.
	Window time.Duration
}

// Memory bundles the four layers behind one construction point. The
// aggregate is fully functional with no external dependencies.
//
// Key features:
//   - Session: append-only per-session message history
//   - Window: time-filtered view of recent session messages
//   - Deep: durable searchable entries with pluggable ranking
//   - Fact: immutable architectural facts with advisory validation
type Memory struct {
	session *SessionLayer
	window  *WindowLayer
	deep    *DeepLayer
	facts   *FactLayer
}

// New creates a memory with all four layers wired.
func New(optFns ...func(o *Options)) *Memory {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	session := NewSessionLayer()

	return &Memory{
		session: session,
		window:  NewWindowLayer(session, opts.Window),
		deep:    NewDeepLayer(opts.DeepStore, opts.Ranker),
		facts:   NewFactLayer(),
	}
}

// Session returns the session history layer.
func (m *Memory) Session() *SessionLayer { return m.session }

// Window returns the recent-view layer.
func (m *Memory) Window() *WindowLayer { return m.window }

// Deep returns the durable search layer.
func (m *Memory) Deep() *DeepLayer { return m.deep }

// Facts returns the fact registry layer.
func (m *Memory) Facts() *FactLayer { return m.facts }

// Layer resolves a layer by name.
func (m *Memory) Layer(name LayerName) (Layer, error) {
	switch name {
	case LayerSession:
		return m.session, nil
	case LayerWindow:
		return m.window, nil
	case LayerDeep:
		return m.deep, nil
	case LayerFact:
		return m.facts, nil
	default:
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unknown memory layer %q", name)}
	}
}

// Validate checks an observed value against the fact registered for key.
// Shorthand for the fact layer's Validate.
func (m *Memory) Validate(fc *core.Context, key string, actual any) Report {
	return m.facts.Validate(fc, key, actual)
}

// Primitive exposes the memory as a composable primitive, so pipelines can
// interleave memory operations with other steps.
func (m *Memory) Primitive() core.Primitive[Request, Response] {
	return &memoryPrimitive{
		Base:   core.NewBase("memory"),
		memory: m,
	}
}

type memoryPrimitive struct {
	core.Base
	memory *Memory
}

// Execute dispatches the request to its layer and operation.
func (p *memoryPrimitive) Execute(fc *core.Context, req Request) (Response, error) {
	layer, err := p.memory.Layer(req.Layer)
	if err != nil {
		return Response{}, err
	}

	switch req.Op {
	case OpAdd:
		return Response{}, layer.Add(fc, req.Record)
	case OpGet:
		records, err := layer.Get(fc, req.Key)
		if err != nil {
			return Response{}, err
		}

		return Response{Records: records}, nil
	case OpSearch:
		results, err := layer.Search(fc, req.Query)
		if err != nil {
			return Response{}, err
		}

		return Response{Results: results}, nil
	case OpValidate:
		report := layer.Validate(fc, req.Key, req.Actual)

		return Response{Report: &report}, nil
	default:
		return Response{}, &core.ConfigurationError{Reason: fmt.Sprintf("unknown memory op %q", req.Op)}
	}
}

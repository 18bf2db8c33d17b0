package memory

import (
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Record is the unit stored and returned by memory layers. Layers read the
// fields relevant to them and ignore the rest:
//
//   - session/window: SessionID, Role, Content
//   - deep: Key, Content, Tags, Importance
//   - fact: Key, Value, Category, Rationale, Constraint
//
// ID and CreatedAt are assigned on add when left empty.
type Record struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id,omitempty"`
	Role       string            `json:"role,omitempty"`
	Key        string            `json:"key,omitempty"`
	Content    string            `json:"content,omitempty"`
	Value      any               `json:"value,omitempty"`
	Category   string            `json:"category,omitempty"`
	Rationale  string            `json:"rationale,omitempty"`
	Constraint *Constraint       `json:"constraint,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Importance float64           `json:"importance,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Query describes a layer search.
type Query struct {
	// Text is matched against record content by the layer's relevance
	// function. Empty text matches everything.
	Text string

	// SessionID restricts session/window searches to one session. Empty
	// searches across sessions.
	SessionID string

	// Tags restricts deep searches to records carrying every listed tag.
	Tags []string

	// K bounds the result count. Defaults to 10.
	K int

	// Window restricts window reads to entries younger than this. Zero
	// uses the layer's configured default.
	Window time.Duration

	// Filters is passed through to the backing store for stores that
	// support server-side filtering.
	Filters map[string]string
}

// Scored pairs a record with its relevance score. Higher is more relevant.
type Scored struct {
	Record Record
	Score  float64
}

// Report is the structured outcome of a validation. Validation is advisory:
// it reports, it never fails the caller.
type Report struct {
	Key      string `json:"key"`
	IsValid  bool   `json:"is_valid"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Message  string `json:"message"`
}

// Layer is the capability interface shared by all memory layers.
type Layer interface {
	// Add stores a record in the layer.
	Add(fc *core.Context, rec Record) error

	// Get returns the records stored under key. The key's meaning is
	// layer-specific: a session id for session/window, an entry key for
	// deep and fact. A missing key yields an empty slice, not an error.
	Get(fc *core.Context, key string) ([]Record, error)

	// Search returns records matching the query, most relevant first.
	Search(fc *core.Context, q Query) ([]Scored, error)

	// Validate checks an externally observed value against the layer's
	// expectations for key. It reports structured results and never
	// returns control-flow errors.
	Validate(fc *core.Context, key string, actual any) Report
}

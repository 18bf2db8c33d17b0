package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// FactStatus marks whether a fact still binds.
type FactStatus string

const (
	// FactActive facts are enforced by validation.
	FactActive FactStatus = "active"

	// FactDeprecated facts are kept for history; validation reports them
	// as satisfied with an advisory message.
	FactDeprecated FactStatus = "deprecated"
)

// ConstraintOp names an acceptance rule for validating a fact.
type ConstraintOp string

const (
	ConstraintEquals   ConstraintOp = "equals"
	ConstraintAtLeast  ConstraintOp = "at_least"
	ConstraintAtMost   ConstraintOp = "at_most"
	ConstraintContains ConstraintOp = "contains"
)

// Constraint is the acceptance rule a fact imposes on observed values.
// Without one, validation falls back to equality with the fact's value.
type Constraint struct {
	Op    ConstraintOp `json:"op"`
	Bound any          `json:"bound"`
}

// Fact is one immutable architectural statement, such as "test coverage is
// at least 80 percent". Facts are registered once and never modified;
// Deprecate is the single allowed transition.
type Fact struct {
	Key        string      `json:"key"`
	Value      any         `json:"value"`
	Category   string      `json:"category,omitempty"`
	Rationale  string      `json:"rationale,omitempty"`
	Status     FactStatus  `json:"status"`
	Constraint *Constraint `json:"constraint,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// FactLayer is an in-process registry of architectural facts. Registered
// facts are immutable; validation against them is advisory and never
// produces an error. Safe for concurrent use.
type FactLayer struct {
	mu    sync.RWMutex
	facts map[string]Fact

	now func() time.Time
}

// NewFactLayer creates an empty fact registry.
func NewFactLayer() *FactLayer {
	return &FactLayer{
		facts: make(map[string]Fact),
		now:   time.Now,
	}
}

// Register adds a fact to the registry. Re-registering an existing key
// violates immutability and fails with a configuration error.
func (l *FactLayer) Register(fc *core.Context, fact Fact) error {
	if fact.Key == "" {
		return &core.ValidationError{Field: "key", Reason: "fact key must not be empty"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.facts[fact.Key]; exists {
		return &core.ConfigurationError{Reason: fmt.Sprintf("fact %q is already registered and immutable", fact.Key)}
	}

	if fact.Status == "" {
		fact.Status = FactActive
	}

	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = l.now().UTC()
	}

	l.facts[fact.Key] = fact

	fc.LogDebug("fact registered", "key", fact.Key, "category", fact.Category)

	return nil
}

// Deprecate marks a fact as no longer binding. The fact itself stays in
// the registry for history.
func (l *FactLayer) Deprecate(fc *core.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fact, exists := l.facts[key]
	if !exists {
		return &core.ValidationError{Field: "key", Reason: fmt.Sprintf("no fact registered for %q", key)}
	}

	fact.Status = FactDeprecated
	l.facts[key] = fact

	fc.LogInfo("fact deprecated", "key", key)

	return nil
}

// Fact returns the registered fact for key.
func (l *FactLayer) Fact(key string) (Fact, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fact, ok := l.facts[key]

	return fact, ok
}

// Add registers the record as a fact. Part of the Layer interface.
func (l *FactLayer) Add(fc *core.Context, rec Record) error {
	return l.Register(fc, Fact{
		Key:        rec.Key,
		Value:      rec.Value,
		Category:   rec.Category,
		Rationale:  rec.Rationale,
		Constraint: rec.Constraint,
		CreatedAt:  rec.CreatedAt,
	})
}

// Get returns the fact registered under key as a record.
func (l *FactLayer) Get(fc *core.Context, key string) ([]Record, error) {
	fact, ok := l.Fact(key)
	if !ok {
		return []Record{}, nil
	}

	return []Record{factRecord(fact)}, nil
}

// Search matches the query text as a substring of fact keys, values,
// categories, and rationales. Active facts score 1.0, deprecated 0.5.
func (l *FactLayer) Search(fc *core.Context, q Query) ([]Scored, error) {
	k := q.K
	if k <= 0 {
		k = defaultSearchK
	}

	needle := strings.ToLower(q.Text)

	l.mu.RLock()
	defer l.mu.RUnlock()

	results := make([]Scored, 0, k)

	for _, fact := range l.facts {
		haystack := strings.ToLower(fmt.Sprintf("%s %v %s %s", fact.Key, fact.Value, fact.Category, fact.Rationale))
		if needle != "" && !strings.Contains(haystack, needle) {
			continue
		}

		score := 1.0
		if fact.Status == FactDeprecated {
			score = 0.5
		}

		results = append(results, Scored{Record: factRecord(fact), Score: score})
	}

	sortScored(results)

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Validate checks an observed value against the fact registered for key.
// It always returns a structured report: a missing fact, a deprecated
// fact, or a violated constraint are all reported, never raised.
func (l *FactLayer) Validate(fc *core.Context, key string, actual any) Report {
	fact, ok := l.Fact(key)
	if !ok {
		return Report{
			Key:     key,
			IsValid: false,
			Actual:  actual,
			Message: fmt.Sprintf("no fact registered for %q", key),
		}
	}

	if fact.Status == FactDeprecated {
		return Report{
			Key:      key,
			IsValid:  true,
			Expected: expectedOf(fact),
			Actual:   actual,
			Message:  fmt.Sprintf("fact %q is deprecated and no longer binding", key),
		}
	}

	return checkFact(fact, actual)
}

func factRecord(fact Fact) Record {
	return Record{
		Key:        fact.Key,
		Value:      fact.Value,
		Category:   fact.Category,
		Rationale:  fact.Rationale,
		Constraint: fact.Constraint,
		CreatedAt:  fact.CreatedAt,
	}
}

func expectedOf(fact Fact) any {
	if fact.Constraint != nil {
		return fact.Constraint.Bound
	}

	return fact.Value
}

// checkFact evaluates the fact's acceptance rule against the observed
// value. Unsupported comparisons (such as an ordering check on non-numeric
// values) report invalid with an explanatory message instead of failing.
func checkFact(fact Fact, actual any) Report {
	report := Report{Key: fact.Key, Expected: expectedOf(fact), Actual: actual}

	if fact.Constraint == nil {
		report.IsValid = fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", fact.Value)
		if report.IsValid {
			report.Message = fmt.Sprintf("%s: observed value matches %v", fact.Key, fact.Value)
		} else {
			report.Message = fmt.Sprintf("%s: observed %v, expected %v", fact.Key, actual, fact.Value)
		}

		return report
	}

	c := fact.Constraint

	switch c.Op {
	case ConstraintEquals:
		report.IsValid = fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", c.Bound)
	case ConstraintAtLeast, ConstraintAtMost:
		got, ok1 := toFloat(actual)
		want, ok2 := toFloat(c.Bound)

		if !ok1 || !ok2 {
			report.IsValid = false
			report.Message = fmt.Sprintf("%s: %s requires numeric values, got %T", fact.Key, c.Op, actual)

			return report
		}

		if c.Op == ConstraintAtLeast {
			report.IsValid = got >= want
		} else {
			report.IsValid = got <= want
		}
	case ConstraintContains:
		report.IsValid = strings.Contains(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", c.Bound))
	default:
		report.IsValid = false
		report.Message = fmt.Sprintf("%s: unknown constraint op %q", fact.Key, c.Op)

		return report
	}

	if report.IsValid {
		report.Message = fmt.Sprintf("%s: observed %v satisfies %s %v", fact.Key, actual, c.Op, c.Bound)
	} else {
		report.Message = fmt.Sprintf("%s: observed %v violates %s %v", fact.Key, actual, c.Op, c.Bound)
	}

	return report
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

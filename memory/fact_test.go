package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/flowkit/core"
)

func coverageFact() Fact {
	return Fact{
		Key:        "test-coverage",
		Value:      80.0,
		Category:   "quality",
		Rationale:  "regressions surface in CI before review",
		Constraint: &Constraint{Op: ConstraintAtLeast, Bound: 80.0},
	}
}

func TestFactLayer_RegisterAndGet(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, coverageFact()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	fact, ok := l.Fact("test-coverage")
	if !ok {
		t.Fatalf("fact not found after register")
	}
	if fact.Status != FactActive {
		t.Fatalf("expected default active status, got %q", fact.Status)
	}
	if fact.CreatedAt.IsZero() {
		t.Fatalf("expected assigned timestamp")
	}

	records, err := l.Get(fc, "test-coverage")
	if err != nil || len(records) != 1 {
		t.Fatalf("expected single record, got %d err=%v", len(records), err)
	}
	if records[0].Category != "quality" {
		t.Fatalf("unexpected record: %#v", records[0])
	}
}

func TestFactLayer_Immutable(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, coverageFact()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	err := l.Register(fc, coverageFact())
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error on re-register, got %v", err)
	}
}

func TestFactLayer_RequiresKey(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, Fact{Value: 1}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFactLayer_ValidateAtLeast(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, coverageFact()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// observed value above the bound passes
	report := l.Validate(fc, "test-coverage", 85.0)
	if !report.IsValid {
		t.Fatalf("expected 85 >= 80 to pass: %#v", report)
	}
	if report.Expected != 80.0 {
		t.Fatalf("unexpected expected value: %v", report.Expected)
	}

	// observed value below the bound reports invalid without raising
	report = l.Validate(fc, "test-coverage", 50.0)
	if report.IsValid {
		t.Fatalf("expected 50 >= 80 to fail: %#v", report)
	}
	if report.Actual != 50.0 {
		t.Fatalf("unexpected actual value: %v", report.Actual)
	}
	if report.Message == "" {
		t.Fatalf("expected explanatory message")
	}

	// the bound itself satisfies at_least
	if report := l.Validate(fc, "test-coverage", 80.0); !report.IsValid {
		t.Fatalf("expected the bound to pass: %#v", report)
	}

	// integers are accepted for numeric bounds
	if report := l.Validate(fc, "test-coverage", 92); !report.IsValid {
		t.Fatalf("expected integer actual to pass: %#v", report)
	}
}

func TestFactLayer_ValidateAtMost(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	err := l.Register(fc, Fact{
		Key:        "p99-latency-ms",
		Value:      250,
		Constraint: &Constraint{Op: ConstraintAtMost, Bound: 250},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if report := l.Validate(fc, "p99-latency-ms", 180); !report.IsValid {
		t.Fatalf("expected 180 <= 250 to pass: %#v", report)
	}
	if report := l.Validate(fc, "p99-latency-ms", 400); report.IsValid {
		t.Fatalf("expected 400 <= 250 to fail: %#v", report)
	}
}

func TestFactLayer_ValidateEquals(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	err := l.Register(fc, Fact{
		Key:        "primary-region",
		Value:      "eu-central-1",
		Constraint: &Constraint{Op: ConstraintEquals, Bound: "eu-central-1"},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if report := l.Validate(fc, "primary-region", "eu-central-1"); !report.IsValid {
		t.Fatalf("expected equality to pass: %#v", report)
	}
	if report := l.Validate(fc, "primary-region", "us-east-1"); report.IsValid {
		t.Fatalf("expected mismatch to fail: %#v", report)
	}
}

func TestFactLayer_ValidateContains(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	err := l.Register(fc, Fact{
		Key:        "allowed-protocols",
		Value:      "grpc",
		Constraint: &Constraint{Op: ConstraintContains, Bound: "grpc"},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if report := l.Validate(fc, "allowed-protocols", "grpc,http"); !report.IsValid {
		t.Fatalf("expected containment to pass: %#v", report)
	}
	if report := l.Validate(fc, "allowed-protocols", "http only"); report.IsValid {
		t.Fatalf("expected missing protocol to fail: %#v", report)
	}
}

func TestFactLayer_ValidateWithoutConstraint(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, Fact{Key: "go-version", Value: "1.24"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// falls back to equality with the fact's value
	if report := l.Validate(fc, "go-version", "1.24"); !report.IsValid {
		t.Fatalf("expected match: %#v", report)
	}
	if report := l.Validate(fc, "go-version", "1.22"); report.IsValid {
		t.Fatalf("expected mismatch: %#v", report)
	}
}

func TestFactLayer_ValidateMissingFact(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	report := l.Validate(fc, "unregistered", 1)
	if report.IsValid {
		t.Fatalf("expected missing fact to report invalid")
	}
	if !strings.Contains(report.Message, "unregistered") {
		t.Fatalf("expected message naming the key, got %q", report.Message)
	}
}

func TestFactLayer_ValidateNonNumericOrdering(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, coverageFact()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// an ordering check against a non-numeric value reports, never panics
	report := l.Validate(fc, "test-coverage", "eighty five")
	if report.IsValid {
		t.Fatalf("expected non-numeric value to report invalid")
	}
	if !strings.Contains(report.Message, "numeric") {
		t.Fatalf("expected message explaining the type problem, got %q", report.Message)
	}
}

func TestFactLayer_Deprecate(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	if err := l.Register(fc, coverageFact()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := l.Deprecate(fc, "test-coverage"); err != nil {
		t.Fatalf("deprecate failed: %v", err)
	}

	// a deprecated fact no longer gates, even on violating values
	report := l.Validate(fc, "test-coverage", 10.0)
	if !report.IsValid {
		t.Fatalf("expected deprecated fact to pass advisory validation: %#v", report)
	}
	if !strings.Contains(report.Message, "deprecated") {
		t.Fatalf("expected message noting deprecation, got %q", report.Message)
	}

	if err := l.Deprecate(fc, "never-registered"); err == nil {
		t.Fatalf("expected error deprecating unknown fact")
	}
}

func TestFactLayer_Search(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	_ = l.Register(fc, coverageFact())
	_ = l.Register(fc, Fact{Key: "primary-region", Value: "eu-central-1", Category: "infrastructure"})
	_ = l.Register(fc, Fact{Key: "retired-rule", Value: "x", Category: "quality"})
	_ = l.Deprecate(fc, "retired-rule")

	hits, err := l.Search(fc, Query{Text: "quality"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 category matches, got %d", len(hits))
	}

	// active facts outrank deprecated ones
	if hits[0].Record.Key != "test-coverage" || hits[0].Score != 1.0 {
		t.Fatalf("unexpected first hit: %#v", hits[0])
	}
	if hits[1].Score != 0.5 {
		t.Fatalf("expected deprecated fact scored 0.5, got %v", hits[1].Score)
	}
}

func TestFactLayer_AddImplementsLayer(t *testing.T) {
	l := NewFactLayer()
	fc := core.Background()

	rec := Record{
		Key:        "test-coverage",
		Value:      80.0,
		Category:   "quality",
		Constraint: &Constraint{Op: ConstraintAtLeast, Bound: 80.0},
	}
	if err := l.Add(fc, rec); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	report := l.Validate(fc, "test-coverage", 85.0)
	if !report.IsValid {
		t.Fatalf("expected fact added through the layer interface to validate: %#v", report)
	}
}

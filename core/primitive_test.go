package core

import (
	"errors"
	"strings"
	"testing"
)

func TestFunc_Execute(t *testing.T) {
	upper := NewFunc("upper", func(fc *Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	if upper.Name() != "upper" {
		t.Errorf("expected name upper, got %s", upper.Name())
	}
	out, err := upper.Execute(Background(), "hello")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out != "HELLO" {
		t.Errorf("expected HELLO, got %s", out)
	}
}

func TestFunc_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	failing := NewFunc("failing", func(fc *Context, _ int) (int, error) {
		return 0, boom
	})
	_, err := failing.Execute(Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestBase_Identity(t *testing.T) {
	b := NewBase("step-1")
	if b.Name() != "step-1" {
		t.Errorf("expected step-1, got %s", b.Name())
	}
	b.SetDescription("first step")
	if b.Description() != "first step" {
		t.Errorf("expected description, got %s", b.Description())
	}
}

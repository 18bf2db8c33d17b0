package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrors_SentinelMatching(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&TimeoutError{Primitive: "slow", Limit: time.Second}, ErrTimeout},
		{&RoutingError{Router: "dispatch", Key: "unknown"}, ErrNoRoute},
		{&ConfigurationError{Reason: "empty sequence"}, ErrConfiguration},
		{&StoreUnavailableError{Op: "get", Err: errors.New("conn refused")}, ErrStoreUnavailable},
		{&ValidationError{Field: "amount", Reason: "negative"}, ErrValidation},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.sentinel) {
			t.Errorf("%T should match %v", c.err, c.sentinel)
		}
	}
}

func TestErrors_SentinelsDoNotCrossMatch(t *testing.T) {
	err := &TimeoutError{Primitive: "slow", Limit: time.Second}
	if errors.Is(err, ErrNoRoute) || errors.Is(err, ErrValidation) {
		t.Error("TimeoutError must only match ErrTimeout")
	}
}

func TestErrors_MatchThroughWrapping(t *testing.T) {
	inner := &TimeoutError{Primitive: "fetch", Limit: 50 * time.Millisecond}
	wrapped := fmt.Errorf("sequence execution failed at step fetch: %w", inner)
	if !errors.Is(wrapped, ErrTimeout) {
		t.Error("sentinel must match through fmt.Errorf wrapping")
	}

	var te *TimeoutError
	if !errors.As(wrapped, &te) || te.Primitive != "fetch" {
		t.Error("errors.As should recover the typed error")
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &OperationError{Primitive: "api-call", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("OperationError must unwrap to its cause")
	}
	if err.Error() != "operation api-call failed: connection reset" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestStoreUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &StoreUnavailableError{Op: "search", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("StoreUnavailableError must unwrap to its cause")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("StoreUnavailableError must match its sentinel")
	}
}

func TestValidationError_Message(t *testing.T) {
	withField := &ValidationError{Field: "email", Reason: "missing @"}
	if withField.Error() != "validation failed on email: missing @" {
		t.Errorf("unexpected message: %s", withField.Error())
	}
	bare := &ValidationError{Reason: "empty input"}
	if bare.Error() != "validation failed: empty input" {
		t.Errorf("unexpected message: %s", bare.Error())
	}
}

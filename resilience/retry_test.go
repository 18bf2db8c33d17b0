package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowkit/core"
	"github.com/hupe1980/flowkit/internal/testutil"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	flaky := testutil.NewFlaky(2, errors.New("transient"))

	r := NewRetry[string, string](flaky).WithBackoff(FixedBackoff(0))

	out, err := r.Execute(core.Background(), "in")
	require.NoError(t, err)
	assert.Equal(t, "in:ok", out)
	assert.Equal(t, 3, flaky.Calls)
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	boom := errors.New("boom")
	flaky := testutil.NewFlaky(100, boom)

	r := NewRetry[string, string](flaky).WithMaxRetries(3).WithBackoff(FixedBackoff(0))

	_, err := r.Execute(core.Background(), "in")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "4 attempts")
	assert.Equal(t, 4, flaky.Calls)
}

func TestRetry_ValidationErrorsNotRetried(t *testing.T) {
	calls := 0
	invalid := core.NewFunc("invalid", func(fc *core.Context, in string) (string, error) {
		calls++
		return "", &core.ValidationError{Field: "in", Reason: "empty"}
	})

	r := NewRetry[string, string](invalid).WithBackoff(FixedBackoff(0))

	_, err := r.Execute(core.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1, calls, "validation failures must not consume the retry budget")
}

func TestRetry_CancellationNotRetried(t *testing.T) {
	calls := 0
	cancelled := core.NewFunc("cancelled", func(fc *core.Context, in string) (string, error) {
		calls++
		return "", context.Canceled
	})

	r := NewRetry[string, string](cancelled).WithBackoff(FixedBackoff(0))

	_, err := r.Execute(core.Background(), "in")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation must not consume the retry budget")
}

func TestRetry_CustomPredicate(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	failing := core.NewFunc("failing", func(fc *core.Context, in string) (string, error) {
		calls++
		return "", fatal
	})

	r := NewRetry[string, string](failing).
		WithBackoff(FixedBackoff(0)).
		WithRetryIf(func(err error) bool { return !errors.Is(err, fatal) })

	_, err := r.Execute(core.Background(), "in")
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExponentialBackoffSchedule(t *testing.T) {
	boom := errors.New("boom")
	flaky := testutil.NewFlaky(100, boom)

	var delays []time.Duration

	r := NewRetry[string, string](flaky).WithMaxRetries(3)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := r.Execute(core.Background(), "in")
	require.Error(t, err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, delays)
}

func TestRetry_MaxDelayCapsBackoff(t *testing.T) {
	boom := errors.New("boom")
	flaky := testutil.NewFlaky(100, boom)

	var delays []time.Duration

	r := NewRetry[string, string](flaky).WithMaxRetries(4).WithMaxDelay(150 * time.Millisecond)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := r.Execute(core.Background(), "in")
	require.Error(t, err)
	require.Len(t, delays, 4)
	for _, d := range delays {
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	boom := errors.New("boom")
	failing := core.NewFunc("failing", func(fc *core.Context, in string) (string, error) {
		cancel()
		return "", boom
	})

	r := NewRetry[string, string](failing).WithBackoff(FixedBackoff(time.Hour))

	_, err := r.Execute(core.NewContext(ctx), "in")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Policies(t *testing.T) {
	fixed := FixedBackoff(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, fixed(0))
	assert.Equal(t, 50*time.Millisecond, fixed(7))

	linear := LinearBackoff(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, linear(0))
	assert.Equal(t, 30*time.Millisecond, linear(2))

	exp := ExponentialBackoff(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, exp(0))
	assert.Equal(t, 40*time.Millisecond, exp(2))
	assert.Equal(t, 80*time.Millisecond, exp(3))
}

func TestRetry_JitterStaysWithinBounds(t *testing.T) {
	r := NewRetry[string, string](testutil.NewFlaky(0, nil)).
		WithBackoff(FixedBackoff(100 * time.Millisecond)).
		WithJitter(0.5)

	for i := 0; i < 100; i++ {
		d := r.delay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

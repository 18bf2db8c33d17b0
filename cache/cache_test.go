package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flowkit/core"
	"github.com/hupe1980/flowkit/internal/testutil"
)

// failingBackend errors on every operation.
type failingBackend struct {
	puts atomic.Int64
}

func (b *failingBackend) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (b *failingBackend) Put(_ context.Context, _ string, _ string) error {
	b.puts.Add(1)
	return errors.New("backend down")
}

func (b *failingBackend) Delete(_ context.Context, _ string) error {
	return errors.New("backend down")
}

func TestCache_HitAndMiss(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child)
	fc := core.Background()

	out, err := c.Execute(fc, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello!", out)

	out, err = c.Execute(fc, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello!", out)

	assert.Equal(t, int64(1), child.Calls(), "second call should be served from cache")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_DistinctInputsMiss(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child)
	fc := core.Background()

	_, err := c.Execute(fc, "a")
	require.NoError(t, err)
	_, err = c.Execute(fc, "b")
	require.NoError(t, err)

	assert.Equal(t, int64(2), child.Calls())
	assert.Equal(t, uint64(2), c.Stats().Misses)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, _ string) (string, error) {
		return "", errors.New("boom")
	})
	c := New[string, string](child)
	fc := core.Background()

	_, err := c.Execute(fc, "x")
	require.Error(t, err)
	_, err = c.Execute(fc, "x")
	require.Error(t, err)

	assert.Equal(t, int64(2), child.Calls(), "failed results must not be served from cache")
}

func TestCache_Expiry(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})

	backend := NewLRUBackend[string](0, time.Minute)
	current := time.Now()
	backend.now = func() time.Time { return current }

	c := New[string, string](child).WithBackend(backend)
	fc := core.Background()

	_, err := c.Execute(fc, "x")
	require.NoError(t, err)

	current = current.Add(30 * time.Second)
	_, err = c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), child.Calls(), "entry should still be live before the TTL")

	current = current.Add(30 * time.Second)
	_, err = c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), child.Calls(), "entry should expire once the TTL elapses")

	assert.Equal(t, uint64(1), c.Stats().Expirations)
}

func TestCache_Eviction(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child, func(o *Options) {
		o.MaxSize = 2
	})
	fc := core.Background()

	_, err := c.Execute(fc, "a")
	require.NoError(t, err)
	_, err = c.Execute(fc, "b")
	require.NoError(t, err)

	// Touch "a" so "b" becomes the eviction candidate.
	_, err = c.Execute(fc, "a")
	require.NoError(t, err)

	_, err = c.Execute(fc, "c")
	require.NoError(t, err)

	_, err = c.Execute(fc, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), child.Calls(), "recently used entry must survive eviction")
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	_, err = c.Execute(fc, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(4), child.Calls(), "least recently used entry should have been evicted")
}

func TestCache_KeyFailureDegrades(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child).WithKeyFunc(func(_ *core.Context, _ string) (string, error) {
		return "", errors.New("unkeyable")
	})
	fc := core.Background()

	out, err := c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, "x!", out)

	_, err = c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), child.Calls(), "unkeyable calls must bypass the cache")
}

func TestCache_BackendFailureDegrades(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	backend := &failingBackend{}
	c := New[string, string](child).WithBackend(backend)
	fc := core.Background()

	out, err := c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, "x!", out)
	assert.Equal(t, int64(1), child.Calls())
	assert.Equal(t, int64(0), backend.puts.Load(), "a failed read must also skip the write")
}

func TestCache_CustomKeyFunc(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child).WithKeyFunc(func(_ *core.Context, _ string) (string, error) {
		return "constant", nil
	})
	fc := core.Background()

	first, err := c.Execute(fc, "a")
	require.NoError(t, err)

	second, err := c.Execute(fc, "b")
	require.NoError(t, err)

	assert.Equal(t, first, second, "inputs sharing a key share a cached result")
	assert.Equal(t, int64(1), child.Calls())
}

func TestCache_Invalidate(t *testing.T) {
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		return in + "!", nil
	})
	c := New[string, string](child)
	fc := core.Background()

	_, err := c.Execute(fc, "x")
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(fc, "x"))

	_, err = c.Execute(fc, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), child.Calls(), "invalidated entries must be recomputed")
}

func TestCache_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	child := testutil.NewCounting("counting", func(_ *core.Context, in string) (string, error) {
		<-release
		return in + "!", nil
	})
	c := New[string, string](child, func(o *Options) {
		o.SingleFlight = true
	})
	fc := core.Background()

	const callers = 5

	var wg sync.WaitGroup

	results := make([]string, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Execute(fc, "x")
		}()
	}

	// Let all callers reach the flight before the leader finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "x!", results[i])
	}

	assert.Equal(t, int64(1), child.Calls(), "concurrent misses for one key should share one execution")
}

func TestCache_Name(t *testing.T) {
	child := testutil.NewCounting("counting", nil)
	c := New[string, string](child)
	assert.Equal(t, "cache(counting)", c.Name())
}

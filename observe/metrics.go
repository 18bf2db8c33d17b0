package observe

import (
	"sync"
	"time"

	"github.com/hupe1980/flowkit/core"
)

// Execution statuses used to key metric series.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MetricKey identifies one metric series.
type MetricKey struct {
	Primitive string
	Status    string
}

// Metric aggregates the calls recorded for one series.
type Metric struct {
	Calls         int64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
}

// AvgDuration returns the mean call duration of the series.
func (m Metric) AvgDuration() time.Duration {
	if m.Calls == 0 {
		return 0
	}

	return m.TotalDuration / time.Duration(m.Calls)
}

// Metrics is an Observer that aggregates call counts and latencies, keyed
// by primitive name and execution status. It can be combined with other
// observers via NewCompositeObserver. Safe for concurrent use.
type Metrics struct {
	NoopObserver

	mu     sync.Mutex
	series map[MetricKey]*Metric
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{series: make(map[MetricKey]*Metric)}
}

func (m *Metrics) OnExit(_ *core.Context, primitive string, _ any, d time.Duration) {
	m.record(primitive, StatusSuccess, d)
}

func (m *Metrics) OnError(_ *core.Context, primitive string, _ error, d time.Duration) {
	m.record(primitive, StatusError, d)
}

func (m *Metrics) record(primitive, status string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := MetricKey{Primitive: primitive, Status: status}

	s, ok := m.series[key]
	if !ok {
		s = &Metric{MinDuration: d}
		m.series[key] = s
	}

	s.Calls++
	s.TotalDuration += d

	if d < s.MinDuration {
		s.MinDuration = d
	}

	if d > s.MaxDuration {
		s.MaxDuration = d
	}
}

// Snapshot returns a copy of every series recorded so far.
func (m *Metrics) Snapshot() map[MetricKey]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[MetricKey]Metric, len(m.series))
	for k, v := range m.series {
		out[k] = *v
	}

	return out
}

package memory

import (
	"time"

	"github.com/hupe1980/flowkit/core"
)

// DefaultWindow bounds window reads when neither the query nor the layer
// configures one.
const DefaultWindow = 15 * time.Minute

// WindowLayer is a time-filtered read over the session history. It owns no
// storage of its own: adds pass through to the underlying session layer,
// and reads return only records younger than the window. This keeps the
// "recent context" view and the full history permanently consistent.
type WindowLayer struct {
	session *SessionLayer
	window  time.Duration

	now func() time.Time
}

// NewWindowLayer creates a windowed view over session. A window of zero
// falls back to DefaultWindow.
func NewWindowLayer(session *SessionLayer, window time.Duration) *WindowLayer {
	if window <= 0 {
		window = DefaultWindow
	}

	return &WindowLayer{
		session: session,
		window:  window,
		now:     time.Now,
	}
}

// Add stores the record in the underlying session history.
func (l *WindowLayer) Add(fc *core.Context, rec Record) error {
	return l.session.Add(fc, rec)
}

// Get returns the session's records that fall inside the window, oldest
// first.
func (l *WindowLayer) Get(fc *core.Context, key string) ([]Record, error) {
	history, err := l.session.Get(fc, key)
	if err != nil {
		return nil, err
	}

	return l.filter(history, l.window), nil
}

// Recent returns the session's records younger than the given window,
// overriding the configured one.
func (l *WindowLayer) Recent(fc *core.Context, sessionID string, window time.Duration) ([]Record, error) {
	if window <= 0 {
		window = l.window
	}

	history, err := l.session.Get(fc, sessionID)
	if err != nil {
		return nil, err
	}

	return l.filter(history, window), nil
}

// Search delegates to the session layer and keeps only matches inside the
// window. Query.Window overrides the configured window for the call.
func (l *WindowLayer) Search(fc *core.Context, q Query) ([]Scored, error) {
	window := q.Window
	if window <= 0 {
		window = l.window
	}

	matches, err := l.session.Search(fc, q)
	if err != nil {
		return nil, err
	}

	cutoff := l.now().Add(-window)

	filtered := matches[:0]

	for _, m := range matches {
		if !m.Record.CreatedAt.Before(cutoff) {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

// Validate is vacuous for the windowed view. Part of the Layer interface.
func (l *WindowLayer) Validate(_ *core.Context, key string, actual any) Report {
	return Report{
		Key:     key,
		IsValid: true,
		Actual:  actual,
		Message: "window layer holds no facts to validate against",
	}
}

func (l *WindowLayer) filter(history []Record, window time.Duration) []Record {
	cutoff := l.now().Add(-window)

	recent := make([]Record, 0, len(history))

	for _, rec := range history {
		if !rec.CreatedAt.Before(cutoff) {
			recent = append(recent, rec)
		}
	}

	return recent
}

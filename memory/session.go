package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hupe1980/flowkit/core"
)

// SessionLayer is the append-only per-session message history. Records are
// returned in insertion order and are never mutated after being added.
// Safe for concurrent use.
type SessionLayer struct {
	mu       sync.RWMutex
	sessions map[string][]Record

	now func() time.Time
}

// NewSessionLayer creates an empty session history.
func NewSessionLayer() *SessionLayer {
	return &SessionLayer{
		sessions: make(map[string][]Record),
		now:      time.Now,
	}
}

// Add appends a message record to its session's history. The record must
// carry a SessionID; ID and CreatedAt are assigned when empty.
func (l *SessionLayer) Add(fc *core.Context, rec Record) error {
	if rec.SessionID == "" {
		return &core.ValidationError{Field: "session_id", Reason: "session records require a session id"}
	}

	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessions[rec.SessionID] = append(l.sessions[rec.SessionID], rec)

	fc.LogDebug("session message stored", "session_id", rec.SessionID, "role", rec.Role)

	return nil
}

// Append is a convenience wrapper storing one message.
func (l *SessionLayer) Append(fc *core.Context, sessionID, role, content string) error {
	return l.Add(fc, Record{SessionID: sessionID, Role: role, Content: content})
}

// Get returns the full history for the session identified by key.
func (l *SessionLayer) Get(fc *core.Context, key string) ([]Record, error) {
	return l.History(fc, key, 0)
}

// History returns the session's messages in insertion order. A positive n
// returns only the n most recent messages; n <= 0 returns everything.
func (l *SessionLayer) History(_ *core.Context, sessionID string, n int) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	history := l.sessions[sessionID]

	if n > 0 && n < len(history) {
		history = history[len(history)-n:]
	}

	return slices.Clone(history), nil
}

// Search performs a case-insensitive substring match of the query text
// over message content. A non-empty Query.SessionID restricts the search
// to that session. Matches score 1.0 and are returned newest first.
func (l *SessionLayer) Search(_ *core.Context, q Query) ([]Scored, error) {
	k := q.K
	if k <= 0 {
		k = defaultSearchK
	}

	needle := strings.ToLower(q.Text)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []Scored

	for sessionID, history := range l.sessions {
		if q.SessionID != "" && q.SessionID != sessionID {
			continue
		}

		for _, rec := range history {
			if needle == "" || strings.Contains(strings.ToLower(rec.Content), needle) {
				results = append(results, Scored{Record: rec, Score: 1.0})
			}
		}
	}

	sortScored(results)

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Validate is vacuous for histories: there are no facts to check, so any
// observed value passes. Part of the Layer interface.
func (l *SessionLayer) Validate(_ *core.Context, key string, actual any) Report {
	return Report{
		Key:     key,
		IsValid: true,
		Actual:  actual,
		Message: "session layer holds no facts to validate against",
	}
}

// Clear removes the history of one session.
func (l *SessionLayer) Clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.sessions, sessionID)
}

// Package sqlite provides a core.Store backed by a SQLite database file,
// giving memory and cache entries durability across process restarts
// without an external service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/flowkit/core"
)

// Store implements core.Store on a single SQLite database. Safe for
// concurrent use; the database is opened in WAL mode so readers never
// block the writer.
type Store struct {
	db *sql.DB

	now func() time.Time
}

// New opens or creates a SQLite database at the given path and prepares
// the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		created_at TEXT NOT NULL,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_records_expires ON records(expires_at);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Add stores value under key, replacing any previous entry. A positive ttl
// bounds the entry's lifetime; zero keeps it until deleted.
func (s *Store) Add(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, value, s.now().UTC().Format(time.RFC3339Nano), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("add record: %w", err)
	}

	return nil
}

// Get returns the live value stored under key. Expired entries are
// filtered out here and physically removed by Purge.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM records WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.now().UnixNano(),
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("get record: %w", err)
	}

	return value, true, nil
}

// Search performs a substring match of query over keys and values of live
// entries, ordered by key for deterministic results. An empty query
// matches everything. Filters are ignored since the flat byte values
// carry no server-side structure to filter on.
func (s *Store) Search(ctx context.Context, query string, k int, _ map[string]string) ([]core.SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM records
		WHERE (expires_at IS NULL OR expires_at > ?) AND (key LIKE ? OR CAST(value AS TEXT) LIKE ?)
		ORDER BY key LIMIT ?`,
		s.now().UnixNano(), pattern, pattern, k,
	)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var results []core.SearchResult

	for rows.Next() {
		var r core.SearchResult

		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.Score = 1.0
		results = append(results, r)
	}

	return results, rows.Err()
}

// Delete removes the entry stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

// Purge physically removes expired entries and reports how many were
// dropped. Reads already filter expired entries, so purging is purely a
// space reclamation concern that can run on any schedule.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge records: %w", err)
	}

	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// parseTime parses an ISO 8601 string, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .nimbus) if it does not exist.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*SqlStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersionV1
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// --- Response cache ---

// GetCached returns the cached body for url if it is younger than maxAge.
// maxAge 0 disables the age check.
func (s *SqlStore) GetCached(url string, maxAge time.Duration) ([]byte, bool, error) {
	var body []byte
	var fetchedAt string
	err := s.db.QueryRow("SELECT body, fetched_at FROM response_cache WHERE url = ?", url).
		Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached: %w", err)
	}
	if maxAge != 0 && time.Since(parseTime(fetchedAt)) > maxAge {
		return nil, false, nil
	}
	return body, true, nil
}

// PutCached upserts the cached body for url, stamping it with the current time.
func (s *SqlStore) PutCached(url string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO response_cache(url, body, fetched_at) VALUES(?,?,?)
		 ON CONFLICT(url) DO UPDATE SET body=excluded.body, fetched_at=excluded.fetched_at`,
		url, body, nowUTC())
	if err != nil {
		return fmt.Errorf("put cached: %w", err)
	}
	return nil
}

// PruneCache deletes entries older than maxAge and returns the number removed.
func (s *SqlStore) PruneCache(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)
	res, err := s.db.Exec("DELETE FROM response_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- Chat history ---

// CreateSession records a new chat session and returns it.
func (s *SqlStore) CreateSession(server string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Server:    server,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions(id, server, started_at) VALUES(?,?,?)",
		sess.ID, sess.Server, sess.StartedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// AppendTurn adds one message to a session's transcript.
func (s *SqlStore) AppendTurn(sessionID, role, content string) error {
	_, err := s.db.Exec(
		"INSERT INTO turns(session_id, role, content, created_at) VALUES(?,?,?,?)",
		sessionID, role, content, nowUTC())
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first.
// limit <= 0 returns all.
func (s *SqlStore) ListSessions(limit int) ([]*Session, error) {
	q := "SELECT id, server, started_at FROM sessions ORDER BY started_at DESC"
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var sess Session
		var startedAt string
		if err := rows.Scan(&sess.ID, &sess.Server, &startedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = parseTime(startedAt)
		out = append(out, &sess)
	}
	return out, rows.Err()
}

// ListTurns returns a session's transcript in insertion order.
func (s *SqlStore) ListTurns(sessionID string) ([]*Turn, error) {
	rows, err := s.db.Query(
		"SELECT id, session_id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []*Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt = parseTime(createdAt)
		out = append(out, &t)
	}
	return out, rows.Err()
}

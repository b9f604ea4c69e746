package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	ts             INTEGER NOT NULL,
	source         TEXT NOT NULL,
	text           TEXT NOT NULL,
	action         TEXT NOT NULL,
	score          REAL NOT NULL,
	rewarded       INTEGER NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_commands_ts ON commands (ts DESC);
`

// SQLiteStore persists command history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the history database at path.
// Parent directories are created.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record appends an entry.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	rewarded := 0
	if e.Rewarded {
		rewarded = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (ts, source, text, action, score, rewarded, correlation_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(), e.Source, e.Text, e.Action, e.Score, rewarded, e.CorrelationID)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, source, text, action, score, rewarded, correlation_id
		 FROM commands ORDER BY ts DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var rewarded int
		if err := rows.Scan(&e.ID, &ts, &e.Source, &e.Text, &e.Action, &e.Score, &rewarded, &e.CorrelationID); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Time = time.UnixMilli(ts)
		e.Rewarded = rewarded != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

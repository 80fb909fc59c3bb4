package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const initTable = `CREATE TABLE IF NOT EXISTS sync_cursor (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  synced_at TEXT NOT NULL,
  rows INTEGER NOT NULL,
  mode TEXT NOT NULL,
  session TEXT NOT NULL
);`

// Entry records the outcome of the last successful bulk sync. Only the bulk
// path reads it; the streaming path never consults the cursor.
type Entry struct {
	SyncedAt time.Time
	Rows     int
	Mode     string
	Session  string
}

// Store persists the replication cursor in a single-file SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (and initializes) the cursor database at dsn.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("cursor dsn is required")
	}
	if err := ensurePath(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, initTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cursor table: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the latest cursor. ok=false when no sync has completed yet.
func (s *Store) Get(ctx context.Context) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT synced_at, rows, mode, session FROM sync_cursor WHERE id = 1")
	var syncedAt string
	var entry Entry
	if err := row.Scan(&syncedAt, &entry.Rows, &entry.Mode, &entry.Session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get cursor: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, syncedAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("parse cursor timestamp: %w", err)
	}
	entry.SyncedAt = parsed
	return entry, true, nil
}

// Put overwrites the cursor with entry.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_cursor (id, synced_at, rows, mode, session)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 synced_at = excluded.synced_at,
		 rows = excluded.rows,
		 mode = excluded.mode,
		 session = excluded.session`,
		entry.SyncedAt.Format(time.RFC3339Nano), entry.Rows, entry.Mode, entry.Session,
	)
	if err != nil {
		return fmt.Errorf("upsert cursor: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func ensurePath(dsn string) error {
	path := strings.TrimSpace(dsn)
	if path == "" || path == ":memory:" {
		return nil
	}
	if strings.HasPrefix(path, "file:") {
		path = strings.TrimPrefix(path, "file:")
		path = strings.TrimPrefix(path, "//")
	}
	if idx := strings.IndexAny(path, "?;"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cursor dir: %w", err)
	}
	return nil
}

// DefaultPath places the cursor database under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tidesync-cursor.db"
	}
	return filepath.Join(home, ".tidesync", "cursor.db")
}

package target

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/quaylabs/tidesync/internal/project"
)

// Store writes adapted project rows into the ClickHouse replica table. The
// table is a ReplacingMergeTree keyed on project_id: appends supersede prior
// versions and OptimizeNow collapses them for readers that cannot wait for
// background merges.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects to the analytical store.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("clickhouse dsn is required")
	}
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &Store{db: db, table: table}, nil
}

// NewWithDB wraps an existing database handle. Used by tests.
func NewWithDB(db *sql.DB, table string) *Store {
	return &Store{db: db, table: table}
}

// Insert appends rows under their keys. Superseded versions for the same key
// coexist until the next compaction pass.
func (s *Store) Insert(ctx context.Context, rows []project.AnalyticsRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), quoteColumns(project.Columns), placeholders(len(project.Columns)),
	))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Values()...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert row %s: %w", row.ProjectID, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}

// Delete issues a keyed delete. The engine applies it asynchronously.
func (s *Store) Delete(ctx context.Context, key string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DELETE WHERE %s = ?", quoteIdent(s.table), quoteIdent("project_id"))
	if _, err := s.db.ExecContext(ctx, stmt, key); err != nil {
		return fmt.Errorf("delete row %s: %w", key, err)
	}
	return nil
}

// OptimizeNow forces a compaction pass so superseded versions for recently
// touched keys collapse without waiting for background maintenance.
func (s *Store) OptimizeNow(ctx context.Context) error {
	stmt := fmt.Sprintf("OPTIMIZE TABLE %s FINAL", quoteIdent(s.table))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("optimize table: %w", err)
	}
	return nil
}

// Truncate destructively clears the replica. Only the bulk load path uses it.
func (s *Store) Truncate(ctx context.Context) error {
	stmt := fmt.Sprintf("TRUNCATE TABLE %s", quoteIdent(s.table))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("truncate table: %w", err)
	}
	return nil
}

// Count returns the logical row count. FINAL keeps uncompacted duplicates
// from inflating the number.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT count() FROM %s FINAL", quoteIdent(s.table))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count replica rows: %w", err)
	}
	return count, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func quoteColumns(cols []string) string {
	quoted := make([]string, 0, len(cols))
	for _, col := range cols {
		quoted = append(quoted, quoteIdent(col))
	}
	return strings.Join(quoted, ", ")
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func quoteIdent(value string) string {
	escaped := strings.ReplaceAll(value, "`", "``")
	return "`" + escaped + "`"
}

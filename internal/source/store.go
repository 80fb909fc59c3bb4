package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaylabs/tidesync/internal/project"
)

// Store reads authoritative project rows from Postgres. It never writes; row
// mutations are made by the administrative surface, not by the sync core.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// Open creates a pooled connection to the authoritative store.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// FetchOne reads the current row for key. A nil row without error means the
// key no longer exists in the authoritative store.
func (s *Store) FetchOne(ctx context.Context, key string) (*project.Row, error) {
	var row project.Row
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_id = $1", columnList(), s.ident())
	err := s.pool.QueryRow(ctx, query, key).Scan(row.ScanDest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", key, err)
	}
	return &row, nil
}

// FetchAll reads every row, or only rows updated after since when non-nil.
func (s *Store) FetchAll(ctx context.Context, since *time.Time) ([]project.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", columnList(), s.ident())
	args := []any{}
	if since != nil {
		query += " WHERE updated_at > $1"
		args = append(args, *since)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	defer rows.Close()

	var out []project.Row
	for rows.Next() {
		var row project.Row
		if err := rows.Scan(row.ScanDest()...); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// Count returns the authoritative row count.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", s.ident())
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func columnList() string {
	return strings.Join(project.Columns, ", ")
}

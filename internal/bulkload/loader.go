package bulkload

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quaylabs/tidesync/internal/cursor"
	"github.com/quaylabs/tidesync/internal/project"
)

// Extractor reads rows from the authoritative store.
type Extractor interface {
	FetchAll(ctx context.Context, since *time.Time) ([]project.Row, error)
}

// Destination receives the extracted rows.
type Destination interface {
	Truncate(ctx context.Context) error
	Insert(ctx context.Context, rows []project.AnalyticsRow) error
}

// CursorStore persists the last-successful-sync timestamp.
type CursorStore interface {
	Get(ctx context.Context) (cursor.Entry, bool, error)
	Put(ctx context.Context, entry cursor.Entry) error
}

// Loader rebuilds the replica from authoritative state. A full load is the
// primary repair mechanism for notification loss: its O(dataset) cost is
// accepted because loss windows are rare and short.
type Loader struct {
	Source  Extractor
	Target  Destination
	Cursors CursorStore
	Session string
	Tracer  trace.Tracer
}

// Full destructively replaces the replica's contents and returns the row
// count loaded.
func (l *Loader) Full(ctx context.Context) (int, error) {
	ctx, span := l.tracer().Start(ctx, "bulkload.full")
	defer span.End()

	// The cursor records extraction start, not completion, so rows updated
	// while the load runs are picked up again by the next incremental pass.
	started := time.Now().UTC()
	rows, err := l.Source.FetchAll(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("extract rows: %w", err)
	}

	if err := l.Target.Truncate(ctx); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("truncate replica: %w", err)
	}
	if err := l.Target.Insert(ctx, adaptAll(rows)); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("load replica: %w", err)
	}

	if err := l.advance(ctx, started, len(rows), "full"); err != nil {
		span.RecordError(err)
		return len(rows), err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	log.Printf("bulkload: full load complete, %d rows", len(rows))
	return len(rows), nil
}

// Incremental appends rows updated since the last cursor; the replica engine
// resolves the resulting duplicates by key. Falls back to Full when no sync
// has completed yet.
func (l *Loader) Incremental(ctx context.Context) (int, error) {
	entry, ok, err := l.Cursors.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}
	if !ok {
		log.Printf("bulkload: no cursor found, running full load")
		return l.Full(ctx)
	}

	ctx, span := l.tracer().Start(ctx, "bulkload.incremental",
		trace.WithAttributes(attribute.String("since", entry.SyncedAt.Format(time.RFC3339))))
	defer span.End()

	started := time.Now().UTC()
	rows, err := l.Source.FetchAll(ctx, &entry.SyncedAt)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("extract rows: %w", err)
	}
	if err := l.Target.Insert(ctx, adaptAll(rows)); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("load replica: %w", err)
	}

	if err := l.advance(ctx, started, len(rows), "incremental"); err != nil {
		span.RecordError(err)
		return len(rows), err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	log.Printf("bulkload: incremental load complete, %d rows since %s", len(rows), entry.SyncedAt.Format(time.RFC3339))
	return len(rows), nil
}

func (l *Loader) advance(ctx context.Context, syncedAt time.Time, rows int, mode string) error {
	err := l.Cursors.Put(ctx, cursor.Entry{
		SyncedAt: syncedAt,
		Rows:     rows,
		Mode:     mode,
		Session:  l.Session,
	})
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

func (l *Loader) tracer() trace.Tracer {
	if l.Tracer != nil {
		return l.Tracer
	}
	return otel.Tracer("tidesync/bulkload")
}

func adaptAll(rows []project.Row) []project.AnalyticsRow {
	out := make([]project.AnalyticsRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, project.Adapt(row))
	}
	return out
}

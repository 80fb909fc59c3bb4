package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/quaylabs/tidesync/internal/project"
)

// SourceReader reads current authoritative rows.
type SourceReader interface {
	FetchOne(ctx context.Context, key string) (*project.Row, error)
}

// TargetWriter applies changes to the analytical replica.
type TargetWriter interface {
	Insert(ctx context.Context, rows []project.AnalyticsRow) error
	Delete(ctx context.Context, key string) error
	OptimizeNow(ctx context.Context) error
}

// ApplyStats summarizes one flush.
type ApplyStats struct {
	Upserts  int
	Deletes  int
	Failures int
}

// Applier replays pending actions against the target. For upserts it re-reads
// the full authoritative row rather than trusting notification content, which
// makes every apply idempotent and immune to notification reordering: the
// result always converges to the row's state at the last execution.
type Applier struct {
	Source SourceReader
	Target TargetWriter
}

// Apply processes one flushed action map. Target write and delete failures
// are logged and skipped; the key heals on the next compaction cycle or full
// resync. A source read failure aborts the flush, it means the streaming
// session itself is unhealthy.
func (a *Applier) Apply(ctx context.Context, actions map[string]Action) (ApplyStats, error) {
	var stats ApplyStats
	for key, action := range actions {
		if action == ActionDelete {
			a.delete(ctx, key, &stats)
			continue
		}

		row, err := a.Source.FetchOne(ctx, key)
		if err != nil {
			return stats, fmt.Errorf("read source row %s: %w", key, err)
		}
		if row == nil {
			// Deleted between notification and read.
			a.delete(ctx, key, &stats)
			continue
		}
		if err := a.Target.Insert(ctx, []project.AnalyticsRow{project.Adapt(*row)}); err != nil {
			log.Printf("sync: upsert %s failed: %v", key, err)
			stats.Failures++
			continue
		}
		stats.Upserts++
	}

	if stats.Upserts+stats.Deletes > 0 {
		if err := a.Target.OptimizeNow(ctx); err != nil {
			log.Printf("sync: compaction failed, superseded versions resolve later: %v", err)
		}
	}
	return stats, nil
}

func (a *Applier) delete(ctx context.Context, key string, stats *ApplyStats) {
	if err := a.Target.Delete(ctx, key); err != nil {
		log.Printf("sync: delete %s failed: %v", key, err)
		stats.Failures++
		return
	}
	stats.Deletes++
}

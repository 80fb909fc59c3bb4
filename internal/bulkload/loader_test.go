package bulkload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quaylabs/tidesync/internal/cursor"
	"github.com/quaylabs/tidesync/internal/project"
)

type fakeExtractor struct {
	rows      []project.Row
	lastSince *time.Time
	err       error
}

func (f *fakeExtractor) FetchAll(_ context.Context, since *time.Time) ([]project.Row, error) {
	f.lastSince = since
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeDestination struct {
	truncates int
	inserted  [][]project.AnalyticsRow
	insertErr error
}

func (f *fakeDestination) Truncate(context.Context) error {
	f.truncates++
	return nil
}

func (f *fakeDestination) Insert(_ context.Context, rows []project.AnalyticsRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rows)
	return nil
}

type fakeCursors struct {
	entry cursor.Entry
	ok    bool
	puts  []cursor.Entry
}

func (f *fakeCursors) Get(context.Context) (cursor.Entry, bool, error) {
	return f.entry, f.ok, nil
}

func (f *fakeCursors) Put(_ context.Context, entry cursor.Entry) error {
	f.puts = append(f.puts, entry)
	f.entry = entry
	f.ok = true
	return nil
}

func projectRows(keys ...string) []project.Row {
	out := make([]project.Row, 0, len(keys))
	for _, key := range keys {
		out = append(out, project.Row{ProjectID: key})
	}
	return out
}

func TestFullLoadTruncatesThenInserts(t *testing.T) {
	source := &fakeExtractor{rows: projectRows("A", "B", "C")}
	dest := &fakeDestination{}
	cursors := &fakeCursors{}
	loader := &Loader{Source: source, Target: dest, Cursors: cursors, Session: "s1"}

	count, err := loader.Full(context.Background())
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if source.lastSince != nil {
		t.Fatal("full load must not filter by cursor")
	}
	if dest.truncates != 1 {
		t.Fatalf("truncates = %d, want 1", dest.truncates)
	}
	if len(dest.inserted) != 1 || len(dest.inserted[0]) != 3 {
		t.Fatalf("inserted batches: %+v", dest.inserted)
	}
	if len(cursors.puts) != 1 || cursors.puts[0].Mode != "full" || cursors.puts[0].Rows != 3 || cursors.puts[0].Session != "s1" {
		t.Fatalf("cursor put: %+v", cursors.puts)
	}
}

func TestFullLoadAdaptsRows(t *testing.T) {
	source := &fakeExtractor{rows: projectRows("A")}
	dest := &fakeDestination{}
	loader := &Loader{Source: source, Target: dest, Cursors: &fakeCursors{}}

	if _, err := loader.Full(context.Background()); err != nil {
		t.Fatalf("full: %v", err)
	}
	row := dest.inserted[0][0]
	if row.InvestmentType != project.InvestmentSingleYear || row.IssueStatus != project.IssueOpen {
		t.Fatalf("row not adapted: %+v", row)
	}
}

func TestIncrementalUsesCursorAndAppends(t *testing.T) {
	since := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeExtractor{rows: projectRows("B")}
	dest := &fakeDestination{}
	cursors := &fakeCursors{entry: cursor.Entry{SyncedAt: since}, ok: true}
	loader := &Loader{Source: source, Target: dest, Cursors: cursors}

	count, err := loader.Incremental(context.Background())
	if err != nil {
		t.Fatalf("incremental: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if source.lastSince == nil || !source.lastSince.Equal(since) {
		t.Fatalf("since = %v, want %v", source.lastSince, since)
	}
	if dest.truncates != 0 {
		t.Fatal("incremental load must not truncate")
	}
	if cursors.entry.Mode != "incremental" {
		t.Fatalf("cursor mode = %q", cursors.entry.Mode)
	}
}

func TestIncrementalWithoutCursorFallsBackToFull(t *testing.T) {
	source := &fakeExtractor{rows: projectRows("A", "B")}
	dest := &fakeDestination{}
	cursors := &fakeCursors{}
	loader := &Loader{Source: source, Target: dest, Cursors: cursors}

	count, err := loader.Incremental(context.Background())
	if err != nil {
		t.Fatalf("incremental: %v", err)
	}
	if count != 2 || dest.truncates != 1 {
		t.Fatalf("fallback did not run a full load: count=%d truncates=%d", count, dest.truncates)
	}
	if cursors.entry.Mode != "full" {
		t.Fatalf("cursor mode = %q, want full", cursors.entry.Mode)
	}
}

func TestFullLoadLeavesCursorOnExtractError(t *testing.T) {
	source := &fakeExtractor{err: errors.New("connection refused")}
	cursors := &fakeCursors{}
	loader := &Loader{Source: source, Target: &fakeDestination{}, Cursors: cursors}

	if _, err := loader.Full(context.Background()); err == nil {
		t.Fatal("expected extract error")
	}
	if len(cursors.puts) != 0 {
		t.Fatal("cursor advanced despite failed load")
	}
}

func TestCursorRecordsExtractionStart(t *testing.T) {
	source := &fakeExtractor{rows: projectRows("A")}
	cursors := &fakeCursors{}
	loader := &Loader{Source: source, Target: &fakeDestination{}, Cursors: cursors}

	before := time.Now().UTC()
	if _, err := loader.Full(context.Background()); err != nil {
		t.Fatalf("full: %v", err)
	}
	after := time.Now().UTC()

	syncedAt := cursors.puts[0].SyncedAt
	if syncedAt.Before(before) || syncedAt.After(after) {
		t.Fatalf("synced_at %v outside load interval [%v, %v]", syncedAt, before, after)
	}
}

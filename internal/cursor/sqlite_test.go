package cursor

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "cursor.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want no cursor", ok, err)
	}

	first := Entry{
		SyncedAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		Rows:     120,
		Mode:     "full",
		Session:  "a1",
	}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !got.SyncedAt.Equal(first.SyncedAt) || got.Rows != 120 || got.Mode != "full" || got.Session != "a1" {
		t.Fatalf("got %+v, want %+v", got, first)
	}
}

func TestCursorOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "cursor.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	if err := store.Put(ctx, Entry{Rows: 10, Mode: "full", Session: "a1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	later := Entry{
		SyncedAt: time.Now().UTC().Add(time.Hour),
		Rows:     3,
		Mode:     "incremental",
		Session:  "b2",
	}
	if err := store.Put(ctx, later); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Mode != "incremental" || got.Rows != 3 || got.Session != "b2" {
		t.Fatalf("cursor not overwritten: %+v", got)
	}
}

func TestPutFillsTimestamp(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "cursor.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	before := time.Now().UTC().Add(-time.Second)
	if err := store.Put(ctx, Entry{Mode: "full", Session: "c3"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SyncedAt.Before(before) {
		t.Fatalf("synced_at %v not filled with current time", got.SyncedAt)
	}
}

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"peptrack/internal/drift"
	"peptrack/internal/status"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndList(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := since.Add(24 * time.Hour)
	second := first.Add(24 * time.Hour)

	if err := j.Record(ctx, "run-1", first, since, drift.ChangeSet{
		"8":   {Old: status.Draft, New: status.Active},
		"484": {Old: status.Accepted, New: status.Final},
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, "run-2", second, first, drift.ChangeSet{
		"8": {Old: status.Active, New: status.Final},
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := j.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(all))
	}
	if all[0].RunID != "run-2" || all[0].Document != "8" || all[0].New != "Final" {
		t.Errorf("newest transition should come first, got %+v", all[0])
	}
	if !all[0].DetectedAt.Equal(second) || !all[0].Since.Equal(first) {
		t.Errorf("timestamps not preserved: %+v", all[0])
	}

	only8, err := j.List(ctx, Query{Document: "8"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(only8) != 2 {
		t.Errorf("expected 2 transitions for document 8, got %d", len(only8))
	}

	limited, err := j.List(ctx, Query{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestJournal_RecordEmptyIsNoop(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	if err := j.Record(ctx, "run", time.Now(), time.Now(), drift.ChangeSet{}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	all, err := j.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty journal, got %v", all)
	}
}

func TestJournal_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Record(ctx, "run", time.Now(), time.Now(), drift.ChangeSet{"1": {Old: status.Draft, New: status.Final}}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()

	all, err := j.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected persisted transition, got %d", len(all))
	}
}

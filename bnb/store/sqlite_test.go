package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLiteJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSQLiteJournalProgress(t *testing.T) {
	ctx := context.Background()
	j := newTestSQLiteJournal(t)

	for seq := 1; seq <= 3; seq++ {
		rec := sampleRecord("run-1", seq)
		if seq == 2 {
			rec.Kind = "log_info"
			rec.Text = "midway"
		}
		if err := j.AppendProgress(ctx, rec); err != nil {
			t.Fatalf("append %d failed: %v", seq, err)
		}
	}
	if err := j.AppendProgress(ctx, sampleRecord("run-2", 1)); err != nil {
		t.Fatalf("append to second run failed: %v", err)
	}

	trail, err := j.Progress(ctx, "run-1")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail has %d records, want 3", len(trail))
	}
	for i, rec := range trail {
		if rec.Seq != i+1 {
			t.Errorf("record %d has seq %d", i, rec.Seq)
		}
		if rec.RunID != "run-1" {
			t.Errorf("record %d has run %q", i, rec.RunID)
		}
	}
	if trail[1].Text != "midway" || trail[1].Kind != "log_info" {
		t.Errorf("log record = %+v", trail[1])
	}
	if trail[0].Bound != 1.5 || trail[0].Explored != 3 {
		t.Errorf("first record = %+v", trail[0])
	}

	if _, err := j.Progress(ctx, "run-none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown run returned %v, want ErrNotFound", err)
	}
}

func TestSQLiteJournalSummary(t *testing.T) {
	ctx := context.Background()
	j := newTestSQLiteJournal(t)

	if _, err := j.LoadSummary(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing summary returned %v, want ErrNotFound", err)
	}

	want := sampleSummary("run-1")
	if err := j.SaveSummary(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := j.LoadSummary(ctx, "run-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.BestObjective != want.BestObjective || got.GlobalBound != want.GlobalBound ||
		got.ExploredNodes != want.ExploredNodes || got.WallSeconds != want.WallSeconds {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
	if !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("completed at = %v, want %v", got.CompletedAt, want.CompletedAt)
	}

	want.ExploredNodes = 99
	if err := j.SaveSummary(ctx, want); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, err = j.LoadSummary(ctx, "run-1")
	if err != nil {
		t.Fatalf("re-load failed: %v", err)
	}
	if got.ExploredNodes != 99 {
		t.Errorf("summary not upserted: %+v", got)
	}
}

func TestSQLiteJournalClosed(t *testing.T) {
	ctx := context.Background()
	j := newTestSQLiteJournal(t)
	if err := j.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second close returned %v", err)
	}
	if err := j.AppendProgress(ctx, sampleRecord("run-1", 1)); err == nil {
		t.Error("append on closed journal succeeded")
	}
	if _, err := j.Progress(ctx, "run-1"); err == nil {
		t.Error("read on closed journal succeeded")
	}
}

func TestJournalInterfaceCompliance(t *testing.T) {
	var _ Journal = (*MemJournal)(nil)
	var _ Journal = (*SQLiteJournal)(nil)
	var _ Journal = (*MySQLJournal)(nil)
}

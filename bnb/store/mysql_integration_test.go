package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

// Integration tests for the MySQL journal. They need a reachable
// server:
//
//	export TEST_MYSQL_DSN="user:pass@tcp(localhost:3306)/parbnb_test?parseTime=true"
//	go test -run MySQL ./bnb/store/
func newTestMySQLJournal(t *testing.T) *MySQLJournal {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL integration test: set TEST_MYSQL_DSN to run")
	}
	j, err := NewMySQLJournal(dsn)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = j.db.ExecContext(ctx, "DELETE FROM solve_progress WHERE run_id LIKE 'it-%'")
		_, _ = j.db.ExecContext(ctx, "DELETE FROM solve_summaries WHERE run_id LIKE 'it-%'")
		_ = j.Close()
	})
	return j
}

func TestMySQLJournalProgress(t *testing.T) {
	ctx := context.Background()
	j := newTestMySQLJournal(t)

	for seq := 1; seq <= 3; seq++ {
		if err := j.AppendProgress(ctx, sampleRecord("it-run-1", seq)); err != nil {
			t.Fatalf("append %d failed: %v", seq, err)
		}
	}

	trail, err := j.Progress(ctx, "it-run-1")
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
	}

	if _, err := j.Progress(ctx, "it-run-none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown run returned %v, want ErrNotFound", err)
	}
}

func TestMySQLJournalSummary(t *testing.T) {
	ctx := context.Background()
	j := newTestMySQLJournal(t)

	want := sampleSummary("it-run-2")
	if err := j.SaveSummary(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := j.LoadSummary(ctx, "it-run-2")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.BestObjective != want.BestObjective || got.ExploredNodes != want.ExploredNodes {
		t.Errorf("summary = %+v, want %+v", got, want)
	}

	want.BestObjective = -1
	if err := j.SaveSummary(ctx, want); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, err = j.LoadSummary(ctx, "it-run-2")
	if err != nil {
		t.Fatalf("re-load failed: %v", err)
	}
	if got.BestObjective != -1 {
		t.Errorf("summary not upserted: %+v", got)
	}
}

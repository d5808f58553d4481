package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteJournal is a Journal backed by a single-file SQLite database.
// Zero-setup persistence for single-machine solves: point it at a file
// (or ":memory:" in tests) and the schema is created on first use.
//
// WAL mode is enabled so dashboards can read the trail while the
// dispatcher appends.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteJournal opens (creating if needed) the journal database at
// the given path.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	j := &SQLiteJournal{db: db}
	if err := j.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) createTables(ctx context.Context) error {
	progressTable := `
		CREATE TABLE IF NOT EXISTS solve_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			worker_rank INTEGER NOT NULL,
			kind TEXT NOT NULL,
			bound REAL NOT NULL,
			best_objective REAL NOT NULL,
			explored INTEGER NOT NULL,
			queue_size INTEGER NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			at TIMESTAMP NOT NULL
		)
	`
	if _, err := j.db.ExecContext(ctx, progressTable); err != nil {
		return err
	}
	progressIndex := `
		CREATE INDEX IF NOT EXISTS idx_solve_progress_run
		ON solve_progress(run_id, seq)
	`
	if _, err := j.db.ExecContext(ctx, progressIndex); err != nil {
		return err
	}
	summaryTable := `
		CREATE TABLE IF NOT EXISTS solve_summaries (
			run_id TEXT PRIMARY KEY,
			best_objective REAL NOT NULL,
			global_bound REAL NOT NULL,
			explored_nodes INTEGER NOT NULL,
			wall_seconds REAL NOT NULL,
			completed_at TIMESTAMP NOT NULL
		)
	`
	_, err := j.db.ExecContext(ctx, summaryTable)
	return err
}

func (j *SQLiteJournal) checkOpen() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return fmt.Errorf("journal is closed")
	}
	return nil
}

// AppendProgress implements Journal.
func (j *SQLiteJournal) AppendProgress(ctx context.Context, rec ProgressRecord) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO solve_progress
			(run_id, seq, worker_rank, kind, bound, best_objective, explored, queue_size, text, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.Rank, rec.Kind, rec.Bound, rec.BestObjective,
		rec.Explored, rec.QueueSize, rec.Text, rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}
	return nil
}

// Progress implements Journal.
func (j *SQLiteJournal) Progress(ctx context.Context, runID string) ([]ProgressRecord, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, worker_rank, kind, bound, best_objective, explored, queue_size, text, at
		FROM solve_progress WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProgressRecord
	for rows.Next() {
		rec := ProgressRecord{RunID: runID}
		var at string
		if err := rows.Scan(&rec.Seq, &rec.Rank, &rec.Kind, &rec.Bound,
			&rec.BestObjective, &rec.Explored, &rec.QueueSize, &rec.Text, &at); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			rec.At = ts
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read progress rows: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// SaveSummary implements Journal.
func (j *SQLiteJournal) SaveSummary(ctx context.Context, summary Summary) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO solve_summaries
			(run_id, best_objective, global_bound, explored_nodes, wall_seconds, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			best_objective = excluded.best_objective,
			global_bound = excluded.global_bound,
			explored_nodes = excluded.explored_nodes,
			wall_seconds = excluded.wall_seconds,
			completed_at = excluded.completed_at`,
		summary.RunID, summary.BestObjective, summary.GlobalBound,
		summary.ExploredNodes, summary.WallSeconds,
		summary.CompletedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// LoadSummary implements Journal.
func (j *SQLiteJournal) LoadSummary(ctx context.Context, runID string) (Summary, error) {
	if err := j.checkOpen(); err != nil {
		return Summary{}, err
	}
	summary := Summary{RunID: runID}
	var completedAt string
	err := j.db.QueryRowContext(ctx, `
		SELECT best_objective, global_bound, explored_nodes, wall_seconds, completed_at
		FROM solve_summaries WHERE run_id = ?`, runID).
		Scan(&summary.BestObjective, &summary.GlobalBound,
			&summary.ExploredNodes, &summary.WallSeconds, &completedAt)
	if err == sql.ErrNoRows {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load summary: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
		summary.CompletedAt = ts
	}
	return summary, nil
}

// Close implements Journal.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

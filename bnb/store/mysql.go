package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLJournal is a Journal backed by MySQL/MariaDB, for deployments
// where several solve clusters share one journal server and the trail
// must survive the dispatcher host.
//
// The DSN format is the go-sql-driver one:
//
//	user:password@tcp(host:3306)/solves?parseTime=true
//
// Never hardcode credentials; read the DSN from the environment.
type MySQLJournal struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLJournal connects to the journal database and creates the
// schema if it does not exist.
func NewMySQLJournal(dsn string) (*MySQLJournal, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	j := &MySQLJournal{db: db}
	if err := j.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

func (j *MySQLJournal) createTables(ctx context.Context) error {
	progressTable := `
		CREATE TABLE IF NOT EXISTS solve_progress (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL,
			seq INT NOT NULL,
			worker_rank INT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			bound DOUBLE NOT NULL,
			best_objective DOUBLE NOT NULL,
			explored BIGINT NOT NULL,
			queue_size INT NOT NULL,
			text TEXT NOT NULL,
			at DATETIME(6) NOT NULL,
			INDEX idx_solve_progress_run (run_id, seq)
		)
	`
	if _, err := j.db.ExecContext(ctx, progressTable); err != nil {
		return err
	}
	summaryTable := `
		CREATE TABLE IF NOT EXISTS solve_summaries (
			run_id VARCHAR(64) PRIMARY KEY,
			best_objective DOUBLE NOT NULL,
			global_bound DOUBLE NOT NULL,
			explored_nodes BIGINT NOT NULL,
			wall_seconds DOUBLE NOT NULL,
			completed_at DATETIME(6) NOT NULL
		)
	`
	_, err := j.db.ExecContext(ctx, summaryTable)
	return err
}

func (j *MySQLJournal) checkOpen() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return fmt.Errorf("journal is closed")
	}
	return nil
}

// AppendProgress implements Journal.
func (j *MySQLJournal) AppendProgress(ctx context.Context, rec ProgressRecord) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO solve_progress
			(run_id, seq, worker_rank, kind, bound, best_objective, explored, queue_size, text, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.Rank, rec.Kind, rec.Bound, rec.BestObjective,
		rec.Explored, rec.QueueSize, rec.Text, rec.At.UTC())
	if err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}
	return nil
}

// Progress implements Journal.
func (j *MySQLJournal) Progress(ctx context.Context, runID string) ([]ProgressRecord, error) {
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
		if err := rows.Scan(&rec.Seq, &rec.Rank, &rec.Kind, &rec.Bound,
			&rec.BestObjective, &rec.Explored, &rec.QueueSize, &rec.Text, &rec.At); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
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
func (j *MySQLJournal) SaveSummary(ctx context.Context, summary Summary) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO solve_summaries
			(run_id, best_objective, global_bound, explored_nodes, wall_seconds, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			best_objective = VALUES(best_objective),
			global_bound = VALUES(global_bound),
			explored_nodes = VALUES(explored_nodes),
			wall_seconds = VALUES(wall_seconds),
			completed_at = VALUES(completed_at)`,
		summary.RunID, summary.BestObjective, summary.GlobalBound,
		summary.ExploredNodes, summary.WallSeconds, summary.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// LoadSummary implements Journal.
func (j *MySQLJournal) LoadSummary(ctx context.Context, runID string) (Summary, error) {
	if err := j.checkOpen(); err != nil {
		return Summary{}, err
	}
	summary := Summary{RunID: runID}
	err := j.db.QueryRowContext(ctx, `
		SELECT best_objective, global_bound, explored_nodes, wall_seconds, completed_at
		FROM solve_summaries WHERE run_id = ?`, runID).
		Scan(&summary.BestObjective, &summary.GlobalBound,
			&summary.ExploredNodes, &summary.WallSeconds, &summary.CompletedAt)
	if err == sql.ErrNoRows {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load summary: %w", err)
	}
	return summary, nil
}

// Close implements Journal.
func (j *MySQLJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

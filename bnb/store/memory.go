package store

import (
	"context"
	"sync"
)

// MemJournal is an in-memory Journal for tests, development, and
// short-lived solves where persistence is not required. Data is lost
// when the process exits.
type MemJournal struct {
	mu        sync.RWMutex
	progress  map[string][]ProgressRecord
	summaries map[string]Summary
}

// NewMemJournal creates an empty in-memory journal.
func NewMemJournal() *MemJournal {
	return &MemJournal{
		progress:  make(map[string][]ProgressRecord),
		summaries: make(map[string]Summary),
	}
}

// AppendProgress implements Journal.
func (m *MemJournal) AppendProgress(ctx context.Context, rec ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[rec.RunID] = append(m.progress[rec.RunID], rec)
	return nil
}

// Progress implements Journal.
func (m *MemJournal) Progress(ctx context.Context, runID string) ([]ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trail, ok := m.progress[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]ProgressRecord(nil), trail...), nil
}

// SaveSummary implements Journal.
func (m *MemJournal) SaveSummary(ctx context.Context, summary Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[summary.RunID] = summary
	return nil
}

// LoadSummary implements Journal.
func (m *MemJournal) LoadSummary(ctx context.Context, runID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary, ok := m.summaries[runID]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return summary, nil
}

// Close implements Journal.
func (m *MemJournal) Close() error { return nil }

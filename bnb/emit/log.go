package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter writes events to a writer as structured log lines.
//
// Two output modes:
//   - text (default): "[msg] run=<id> rank=<n> seq=<n> meta=..."
//   - JSON: one JSON object per line, for machine consumption.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to the given writer, or to
// stdout when writer is nil. jsonMode selects JSON-lines output over
// the human-readable text format.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jsonMode {
		l.writeJSON(event)
	} else {
		l.writeText(event)
	}
}

// EmitBatch implements Emitter.
func (l *LogEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Emit(event)
	}
	return nil
}

// Flush implements Emitter. The writer is unbuffered at this layer, so
// there is nothing to flush.
func (l *LogEmitter) Flush(ctx context.Context) error { return nil }

func (l *LogEmitter) writeJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID string                 `json:"runID"`
		Rank  int                    `json:"rank"`
		Seq   int                    `json:"seq"`
		Msg   string                 `json:"msg"`
		Meta  map[string]interface{} `json:"meta"`
	}{
		RunID: event.RunID,
		Rank:  event.Rank,
		Seq:   event.Seq,
		Msg:   event.Msg,
		Meta:  event.Meta,
	})
	if err != nil {
		// Meta held something unmarshalable; degrade to text rather
		// than drop the event.
		l.writeText(event)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) writeText(event Event) {
	if len(event.Meta) > 0 {
		if meta, err := json.Marshal(event.Meta); err == nil {
			fmt.Fprintf(l.writer, "[%s] run=%s rank=%d seq=%d meta=%s\n",
				event.Msg, event.RunID, event.Rank, event.Seq, meta)
			return
		}
	}
	fmt.Fprintf(l.writer, "[%s] run=%s rank=%d seq=%d\n",
		event.Msg, event.RunID, event.Rank, event.Seq)
}

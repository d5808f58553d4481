package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterTextMode(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(Event{
		RunID: "run-1",
		Rank:  2,
		Seq:   7,
		Msg:   "update",
		Meta:  map[string]interface{}{"bound": 3.5},
	})

	line := buf.String()
	for _, want := range []string{"[update]", "run=run-1", "rank=2", "seq=7", `"bound":3.5`} {
		if !strings.Contains(line, want) {
			t.Errorf("text output %q missing %q", line, want)
		}
	}
}

func TestLogEmitterJSONMode(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{RunID: "run-2", Rank: 1, Seq: 3, Msg: "no_work"})

	var decoded struct {
		RunID string `json:"runID"`
		Rank  int    `json:"rank"`
		Seq   int    `json:"seq"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if decoded.RunID != "run-2" || decoded.Rank != 1 || decoded.Seq != 3 || decoded.Msg != "no_work" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestLogEmitterBatch(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	events := []Event{
		{RunID: "run-3", Msg: "a"},
		{RunID: "run-3", Msg: "b"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("batch wrote %d lines, want 2", len(lines))
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("flush failed: %v", err)
	}
}

func TestLogEmitterNilWriterDefaultsToStdout(t *testing.T) {
	emitter := NewLogEmitter(nil, false)
	if emitter.writer == nil {
		t.Error("nil writer was not defaulted")
	}
}

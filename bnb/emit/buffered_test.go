package emit

import (
	"context"
	"sync"
	"testing"
)

func TestBufferedEmitterHistory(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{RunID: "run-1", Rank: 1, Seq: 1, Msg: "update"})
	emitter.Emit(Event{RunID: "run-1", Rank: 2, Seq: 2, Msg: "work_dispatched"})
	emitter.Emit(Event{RunID: "run-2", Rank: 1, Seq: 1, Msg: "update"})

	history := emitter.History("run-1")
	if len(history) != 2 {
		t.Fatalf("history has %d events, want 2", len(history))
	}
	if history[0].Msg != "update" || history[1].Msg != "work_dispatched" {
		t.Errorf("history order wrong: %+v", history)
	}
	if len(emitter.History("run-3")) != 0 {
		t.Error("unknown run returned events")
	}
}

func TestBufferedEmitterFilter(t *testing.T) {
	emitter := NewBufferedEmitter()
	for seq := 1; seq <= 5; seq++ {
		rank := seq % 2
		msg := "update"
		if seq == 3 {
			msg = "no_work"
		}
		emitter.Emit(Event{RunID: "run-1", Rank: rank, Seq: seq, Msg: msg})
	}

	if got := emitter.HistoryWithFilter("run-1", HistoryFilter{Msg: "no_work"}); len(got) != 1 || got[0].Seq != 3 {
		t.Errorf("msg filter returned %+v", got)
	}

	rank := 1
	if got := emitter.HistoryWithFilter("run-1", HistoryFilter{Rank: &rank}); len(got) != 3 {
		t.Errorf("rank filter returned %d events, want 3", len(got))
	}

	minSeq, maxSeq := 2, 4
	got := emitter.HistoryWithFilter("run-1", HistoryFilter{MinSeq: &minSeq, MaxSeq: &maxSeq})
	if len(got) != 3 {
		t.Errorf("seq range filter returned %d events, want 3", len(got))
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{RunID: "run-1", Msg: "update"})
	emitter.Emit(Event{RunID: "run-2", Msg: "update"})

	emitter.Clear("run-1")
	if len(emitter.History("run-1")) != 0 {
		t.Error("clear left events behind")
	}
	if len(emitter.History("run-2")) != 1 {
		t.Error("clear removed another run's events")
	}

	emitter.ClearAll()
	if len(emitter.History("run-2")) != 0 {
		t.Error("clear-all left events behind")
	}
}

func TestBufferedEmitterConcurrentAccess(t *testing.T) {
	emitter := NewBufferedEmitter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				emitter.Emit(Event{RunID: "run-1", Rank: i, Seq: j, Msg: "update"})
				_ = emitter.History("run-1")
			}
		}(i)
	}
	wg.Wait()

	if got := len(emitter.History("run-1")); got != 800 {
		t.Errorf("recorded %d events, want 800", got)
	}
}

func TestBufferedEmitterBatch(t *testing.T) {
	emitter := NewBufferedEmitter()
	events := []Event{
		{RunID: "run-1", Seq: 1, Msg: "update"},
		{RunID: "run-1", Seq: 2, Msg: "no_work"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if got := len(emitter.History("run-1")); got != 2 {
		t.Errorf("recorded %d events, want 2", got)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("flush failed: %v", err)
	}
}

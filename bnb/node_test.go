package bnb_test

import (
	"reflect"
	"testing"

	"github.com/parbnb/parbnb-go/bnb"
)

func TestNodeMarshalRoundTrip(t *testing.T) {
	node := &bnb.Node{
		BestObjective: 12.5,
		Bound:         3.25,
		TreeDepth:     4,
		State:         []float64{0.5, -1.5, 2.25},
	}
	node.SetQueuePriority(-3.25)

	buf, err := node.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if len(buf) != 4+len(node.State) {
		t.Fatalf("buffer has %d slots, want %d", len(buf), 4+len(node.State))
	}

	out, err := bnb.UnmarshalNode(buf)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.BestObjective != node.BestObjective {
		t.Errorf("best objective = %v, want %v", out.BestObjective, node.BestObjective)
	}
	if out.Bound != node.Bound {
		t.Errorf("bound = %v, want %v", out.Bound, node.Bound)
	}
	if out.TreeDepth != node.TreeDepth {
		t.Errorf("tree depth = %v, want %v", out.TreeDepth, node.TreeDepth)
	}
	if priority, has := out.QueuePriority(); !has || priority != -3.25 {
		t.Errorf("queue priority = (%v, %v), want (-3.25, true)", priority, has)
	}
	if !reflect.DeepEqual(out.State, node.State) {
		t.Errorf("state = %v, want %v", out.State, node.State)
	}
}

func TestNodeMarshalRejectsNegativeDepth(t *testing.T) {
	node := &bnb.Node{TreeDepth: -1}
	if _, err := node.Marshal(); err == nil {
		t.Error("expected error for negative tree depth")
	}
}

func TestUnmarshalNodeRejectsBadBuffers(t *testing.T) {
	if _, err := bnb.UnmarshalNode([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for short buffer")
	}
	if _, err := bnb.UnmarshalNode([]float64{0, 0, -2, 0}); err == nil {
		t.Error("expected error for negative depth slot")
	}
	if _, err := bnb.UnmarshalNode([]float64{0, 0, 1.5, 0}); err == nil {
		t.Error("expected error for fractional depth slot")
	}
}

func TestExtractBestObjective(t *testing.T) {
	node := &bnb.Node{BestObjective: -7.75, Bound: 1, TreeDepth: 0}
	buf, err := node.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	best, err := bnb.ExtractBestObjective(buf)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if best != -7.75 {
		t.Errorf("extracted best = %v, want -7.75", best)
	}

	if _, err := bnb.ExtractBestObjective([]float64{1}); err == nil {
		t.Error("expected error for short buffer")
	}
}

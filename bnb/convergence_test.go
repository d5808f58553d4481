package bnb_test

import (
	"math"
	"testing"

	"github.com/parbnb/parbnb-go/bnb"
)

func TestToleranceConvergerExact(t *testing.T) {
	minimize := &bnb.ToleranceConverger{OptSense: bnb.Minimize}

	cases := []struct {
		best, bound float64
		want        bool
	}{
		{best: 5, bound: 4.9, want: true},
		{best: 5, bound: 5, want: false},
		{best: 5, bound: 7, want: false},
		{best: math.Inf(1), bound: 1e308, want: true},
		{best: math.Inf(1), bound: math.Inf(1), want: false},
	}
	for _, tc := range cases {
		if got := minimize.ObjectiveCanImprove(tc.best, tc.bound); got != tc.want {
			t.Errorf("minimize: ObjectiveCanImprove(%v, %v) = %v, want %v", tc.best, tc.bound, got, tc.want)
		}
	}

	maximize := &bnb.ToleranceConverger{OptSense: bnb.Maximize}
	if !maximize.ObjectiveCanImprove(5, 5.1) {
		t.Error("maximize: bound above incumbent should improve")
	}
	if maximize.ObjectiveCanImprove(5, 5) {
		t.Error("maximize: bound equal to incumbent should not improve")
	}
	if !maximize.ObjectiveCanImprove(math.Inf(-1), -1e308) {
		t.Error("maximize: any finite bound should improve on -inf")
	}
}

func TestToleranceConvergerGaps(t *testing.T) {
	c := &bnb.ToleranceConverger{OptSense: bnb.Minimize, AbsoluteGap: 0.5}
	if c.ObjectiveCanImprove(10, 9.6) {
		t.Error("bound within the absolute gap should not improve")
	}
	if !c.ObjectiveCanImprove(10, 9.4) {
		t.Error("bound outside the absolute gap should improve")
	}

	rel := &bnb.ToleranceConverger{OptSense: bnb.Minimize, RelativeGap: 0.1}
	if rel.ObjectiveCanImprove(100, 91) {
		t.Error("bound within the relative gap should not improve")
	}
	if !rel.ObjectiveCanImprove(100, 89) {
		t.Error("bound outside the relative gap should improve")
	}
}

package bnb

import (
	"fmt"
	"math"
)

// updateHeaderLen is the number of fixed float64 slots at the front of
// an update frame, before the node-state list begins.
const updateHeaderLen = 4

// UpdateFrame is one worker-to-dispatcher progress report: the worker's
// incumbent, the bound of the subtree it just finished, how many nodes
// it explored since the last report, and the serialized children it
// wants placed on the global frontier.
type UpdateFrame struct {
	BestObjective float64
	PreviousBound float64
	ExploredNodes int64
	NodeStates    [][]float64
}

// Pack serializes the frame into a contiguous float64 buffer:
//
//	[ best_objective, previous_bound, explored, k,
//	  len_0, state_0..., len_1, state_1..., ... ]
//
// Integer-valued slots (explored count, state lengths) must be exactly
// representable as float64; Pack rejects values past 2^53.
func (f *UpdateFrame) Pack() ([]float64, error) {
	if f.ExploredNodes < 0 {
		return nil, fmt.Errorf("update frame: explored node count must be non-negative, got %d", f.ExploredNodes)
	}
	if f.ExploredNodes > maxExactInt {
		return nil, fmt.Errorf("update frame: explored node count %d exceeds exact float64 range", f.ExploredNodes)
	}
	size := updateHeaderLen
	for _, state := range f.NodeStates {
		size += 1 + len(state)
	}
	buf := make([]float64, size)
	buf[0] = f.BestObjective
	buf[1] = f.PreviousBound
	buf[2] = float64(f.ExploredNodes)
	buf[3] = float64(len(f.NodeStates))
	pos := updateHeaderLen
	for _, state := range f.NodeStates {
		buf[pos] = float64(len(state))
		pos++
		copy(buf[pos:], state)
		pos += len(state)
	}
	return buf, nil
}

// UnpackUpdateFrame parses a buffer produced by Pack. Malformed frames
// (short buffers, non-integer counts, lengths past the buffer end) are
// protocol errors.
func UnpackUpdateFrame(buf []float64) (*UpdateFrame, error) {
	if len(buf) < updateHeaderLen {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("update frame too short: %d slots, need at least %d", len(buf), updateHeaderLen),
			Code:    "BAD_FRAME",
		}
	}
	explored, err := exactCount(buf[2], "explored node count")
	if err != nil {
		return nil, err
	}
	count, err := exactCount(buf[3], "node state count")
	if err != nil {
		return nil, err
	}
	frame := &UpdateFrame{
		BestObjective: buf[0],
		PreviousBound: buf[1],
		ExploredNodes: explored,
		NodeStates:    make([][]float64, 0, count),
	}
	pos := updateHeaderLen
	for i := int64(0); i < count; i++ {
		if pos >= len(buf) {
			return nil, &ProtocolError{
				Message: fmt.Sprintf("update frame truncated before state %d of %d", i, count),
				Code:    "BAD_FRAME",
			}
		}
		length, err := exactCount(buf[pos], "node state length")
		if err != nil {
			return nil, err
		}
		pos++
		if int64(len(buf)-pos) < length {
			return nil, &ProtocolError{
				Message: fmt.Sprintf("update frame state %d declares %d slots but only %d remain", i, length, len(buf)-pos),
				Code:    "BAD_FRAME",
			}
		}
		state := make([]float64, length)
		copy(state, buf[pos:pos+int(length)])
		frame.NodeStates = append(frame.NodeStates, state)
		pos += int(length)
	}
	if pos != len(buf) {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("update frame has %d trailing slots", len(buf)-pos),
			Code:    "BAD_FRAME",
		}
	}
	return frame, nil
}

func exactCount(v float64, what string) (int64, error) {
	if v < 0 || v != math.Trunc(v) || v > float64(maxExactInt) {
		return 0, &ProtocolError{
			Message: fmt.Sprintf("update frame %s slot holds %v, want a non-negative exact integer", what, v),
			Code:    "BAD_FRAME",
		}
	}
	return int64(v), nil
}

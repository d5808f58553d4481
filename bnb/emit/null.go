package emit

import "context"

// NullEmitter discards every event. It is the default emitter when a
// dispatcher is built without one, so event emission never needs a nil
// check on the hot path.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit implements Emitter.
func (n *NullEmitter) Emit(event Event) {}

// EmitBatch implements Emitter.
func (n *NullEmitter) EmitBatch(ctx context.Context, events []Event) error { return nil }

// Flush implements Emitter.
func (n *NullEmitter) Flush(ctx context.Context) error { return nil }

package bnb

// ActionTimer accumulates wall-clock time spent inside transport calls.
// It is a scoped accumulator: Start records a timestamp, Stop adds the
// elapsed interval to the running total. Scopes never nest — a second
// Start before Stop is a caller bug and panics.
//
// The timer is observability only; nothing on the correctness path
// reads it.
type ActionTimer struct {
	now     func() float64
	started bool
	start   float64
	total   float64
}

// newActionTimer creates a timer reading the given wall clock, which
// returns seconds from an arbitrary fixed origin.
func newActionTimer(now func() float64) *ActionTimer {
	return &ActionTimer{now: now}
}

// Start opens a timed scope.
func (t *ActionTimer) Start() {
	if t.started {
		panic("bnb: action timer started twice without an intervening stop")
	}
	t.started = true
	t.start = t.now()
}

// Stop closes the current scope and accumulates its duration.
func (t *ActionTimer) Stop() {
	if !t.started {
		panic("bnb: action timer stopped without a matching start")
	}
	t.total += t.now() - t.start
	t.started = false
}

// Total returns the accumulated seconds across all closed scopes.
func (t *ActionTimer) Total() float64 { return t.total }

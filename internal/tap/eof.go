package tap

import "sync/atomic"

// RunState is the shared keep-running flag plus the received-record
// counter. The flag starts true and is cleared exactly once per run;
// it is never set back. Atomics because the signal handler clears the
// flag from its own goroutine.
type RunState struct {
	stopped  atomic.Bool
	received atomic.Int64
}

func NewRunState() *RunState {
	return &RunState{}
}

func (s *RunState) Running() bool { return !s.stopped.Load() }

func (s *RunState) Stop() { s.stopped.Store(true) }

// Received returns the number of successfully written records so far.
func (s *RunState) Received() int64 { return s.received.Load() }

func (s *RunState) addReceived() int64 { return s.received.Add(1) }

// EOFTracker keeps per-partition reached-end flags and clears the run
// flag once enough tracked partitions have hit end-of-log. Threshold
// is 1 when a single explicit partition is consumed, otherwise the
// number of selected partitions.
type EOFTracker struct {
	state     *RunState
	reached   map[int]bool
	count     int
	threshold int
}

func NewEOFTracker(partitions []int, single bool, state *RunState) *EOFTracker {
	threshold := len(partitions)
	if single {
		threshold = 1
	}
	return &EOFTracker{
		state:     state,
		reached:   make(map[int]bool, len(partitions)),
		threshold: threshold,
	}
}

// Notify records that a partition reached end-of-log. Idempotent per
// partition: repeated notifications do not advance the count. Returns
// true once the threshold is reached and the run flag has been cleared.
func (t *EOFTracker) Notify(partition int) bool {
	if !t.reached[partition] {
		t.reached[partition] = true
		t.count++

		if t.count >= t.threshold {
			t.state.Stop()
		}
	}
	return !t.state.Running()
}

// AtEOF returns how many tracked partitions have reached end-of-log.
func (t *EOFTracker) AtEOF() int { return t.count }

package deferred

import (
	"sync/atomic"
)

// lifecycleState is the state word of a single Deferred.
//
// State Machine:
//
//	Pending --complete()--> Running --chain empty--> Done
//	                          |  ^
//	                          |  | inner deferred ready
//	                          v  |
//	                        Paused
//	Done --append after terminal--> Running --...--> Done
//
// All conditional transitions are made by compare-and-swap on this word.
// The unconditional transitions are plain atomic stores: DONE -> RUNNING
// on append (already serialized by the chain mutex, so that caller knows
// it alone owns the transition and a CAS would be redundant), and the
// drainer's own RUNNING -> DONE and RUNNING -> PAUSED.
type lifecycleState uint32

const (
	// statePending is the initial state: no result has arrived yet.
	statePending lifecycleState = iota
	// stateRunning indicates a result is being carried through the chain,
	// either by the goroutine that called Complete, the goroutine that
	// appended to an already-terminal Deferred, or the goroutine resuming
	// a paused continuation.
	stateRunning
	// statePaused indicates the chain is suspended on a pending inner
	// Deferred returned by a link or passed to Complete.
	statePaused
	// stateDone indicates the chain has fully drained; the carried value
	// is terminal.
	stateDone
)

// String returns a human-readable representation of the state.
func (s lifecycleState) String() string {
	switch s {
	case statePending:
		return "Pending"
	case stateRunning:
		return "Running"
	case statePaused:
		return "Paused"
	case stateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// atomicState wraps an atomic.Uint32 with the load/store/CAS vocabulary the
// Deferred core needs. The zero value is statePending, so a zero-value
// Deferred starts out pending without any explicit initialization.
type atomicState struct {
	v atomic.Uint32
}

func (s *atomicState) load() lifecycleState {
	return lifecycleState(s.v.Load())
}

func (s *atomicState) store(state lifecycleState) {
	s.v.Store(uint32(state))
}

func (s *atomicState) compareAndSwap(from, to lifecycleState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

package reactor

import "sync/atomic"

// runState tracks the reactor's run lifecycle. Shutdown is the only
// operation meant to cross goroutines (it is legal to call from a
// timer handler, a Context, or an external goroutine via the one
// cross-thread surface), so transitions are CAS-based even though
// dispatch itself is strictly single-threaded.
type runState uint32

const (
	stateIdle runState = iota
	stateRunning
	stateTerminating
	stateTerminated
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateRunning:
		return "Running"
	case stateTerminating:
		return "Terminating"
	case stateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// atomicRunState is a lock-free state holder, mirroring the teacher's
// FastState CAS pattern.
type atomicRunState struct {
	v atomic.Uint32
}

func (s *atomicRunState) Load() runState { return runState(s.v.Load()) }

func (s *atomicRunState) Store(state runState) { s.v.Store(uint32(state)) }

func (s *atomicRunState) TryTransition(from, to runState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

func (s *atomicRunState) IsTerminal() bool { return s.Load() == stateTerminated }

package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicRunStateTransitions(t *testing.T) {
	var s atomicRunState
	assert.Equal(t, stateIdle, s.Load())

	assert.True(t, s.TryTransition(stateIdle, stateRunning))
	assert.Equal(t, stateRunning, s.Load())

	assert.False(t, s.TryTransition(stateIdle, stateRunning), "wrong from-state must fail")
	assert.Equal(t, stateRunning, s.Load())

	assert.True(t, s.TryTransition(stateRunning, stateTerminating))
	assert.False(t, s.IsTerminal())

	s.Store(stateTerminated)
	assert.True(t, s.IsTerminal())
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "Idle", stateIdle.String())
	assert.Equal(t, "Running", stateRunning.String())
	assert.Equal(t, "Terminating", stateTerminating.String())
	assert.Equal(t, "Terminated", stateTerminated.String())
}

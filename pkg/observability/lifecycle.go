package observability

import (
	"fmt"
	"sync"
)

// LifecycleState tracks where the process is in its startup sequence.
type LifecycleState int

const (
	StateStarting LifecycleState = iota
	StateMigrating
	StateSeeding
	StateReady
)

func (s LifecycleState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateMigrating:
		return "migrating"
	case StateSeeding:
		return "seeding"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Lifecycle is the explicit startup state machine. Transitions only move
// forward (starting -> migrating -> seeding -> ready); the readiness probe
// reports unready until the ready state is reached.
type Lifecycle struct {
	mu    sync.RWMutex
	state LifecycleState
}

// NewLifecycle starts in the starting state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateStarting}
}

// Advance moves to the given state. Moving backwards is a programming
// error and is rejected.
func (l *Lifecycle) Advance(to LifecycleState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if to < l.state {
		return fmt.Errorf("cannot move lifecycle from %s back to %s", l.state, to)
	}
	l.state = to
	return nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() LifecycleState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Ready reports whether startup has completed.
func (l *Lifecycle) Ready() bool {
	return l.State() == StateReady
}

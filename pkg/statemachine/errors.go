package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrTerminalState   = errors.New("statemachine: current state is terminal")
	ErrDuplicateTarget = errors.New("statemachine: transition already registered")
	ErrNoTransition    = errors.New("statemachine: no transition")
	ErrRejected        = errors.New("statemachine: rejected by guard")
)

// TransitionError names the state and event that failed to fire.
// It unwraps to ErrNoTransition or ErrRejected.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: event %q in state %q", e.Err, e.Event, e.State)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// NoTransition reports that state has no transition for event.
func NoTransition(state, event string) error {
	return &TransitionError{State: state, Event: event, Err: ErrNoTransition}
}

func rejected(state, event string) error {
	return &TransitionError{State: state, Event: event, Err: ErrRejected}
}

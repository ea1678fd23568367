// Package statemachine provides a small typed finite state machine.
//
// States and events are any string-based types. Transitions are registered
// once at construction and looked up by [from][event]. Guards can veto a
// transition and actions run before the state changes; an action error aborts
// the transition. States marked terminal accept no further events.
//
// # Usage
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("draft",
//		statemachine.WithTransition[State, Event]("draft", "review", "submit"),
//		statemachine.WithTerminal[State, Event]("published"),
//	)
//	err := m.Fire(ctx, "submit")
//
// # Error Handling
//
//	errors.Is(err, statemachine.ErrNoTransition)  // no edge for the event
//	errors.Is(err, statemachine.ErrRejected)      // every edge vetoed by a guard
//	errors.Is(err, statemachine.ErrTerminalState) // machine already finished
//
// A *TransitionError carries the state and event names for the first two.
//
// # Concurrency
//
// Machine is safe for concurrent use. Fire holds the write lock while guards
// and actions run, so they must not call back into the same machine.
package statemachine

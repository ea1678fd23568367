package statemachine

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Key is the underlying type of states and events.
type Key interface {
	~string
}

// Guard decides whether a transition may proceed.
type Guard[S, E Key] func(ctx context.Context, from S, event E) bool

// Action runs a side effect before the state changes. A non-nil error aborts the transition.
type Action[S, E Key] func(ctx context.Context, from, to S, event E) error

type transition[S, E Key] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Machine is a concurrency-safe finite state machine.
type Machine[S, E Key] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[S]map[E][]transition[S, E]
	terminal    map[S]struct{}
}

// New creates a machine in the initial state.
func New[S, E Key](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]transition[S, E]),
		terminal:    make(map[S]struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a configuration error.
func MustNew[S, E Key](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) add(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) error {
	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]transition[S, E])
	}
	for _, t := range m.transitions[from][event] {
		// an unguarded duplicate could never be reached
		if t.to == to && len(t.guards) == 0 && len(guards) == 0 {
			return fmt.Errorf("%w: %s -> %s on %s", ErrDuplicateTarget, from, to, event)
		}
	}
	m.transitions[from][event] = append(m.transitions[from][event], transition[S, E]{
		to:      to,
		guards:  slices.Clone(guards),
		actions: slices.Clone(actions),
	})
	return nil
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in any of the given states.
func (m *Machine[S, E]) Is(states ...S) bool {
	return slices.Contains(states, m.Current())
}

// IsTerminal reports whether the current state accepts no further events.
func (m *Machine[S, E]) IsTerminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.terminal[m.current]
	return ok
}

// Fire applies event to the current state. The first transition whose guards
// all pass wins, in registration order.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(ctx, event)
	if err != nil {
		return err
	}

	for _, action := range t.actions {
		if err := action(ctx, m.current, t.to, event); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.to
	return nil
}

// CanFire reports whether Fire would find a transition for event.
// Actions are not run, so Fire may still fail.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.lookup(ctx, event)
	return err == nil
}

func (m *Machine[S, E]) lookup(ctx context.Context, event E) (*transition[S, E], error) {
	if _, ok := m.terminal[m.current]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTerminalState, m.current)
	}

	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return nil, NoTransition(string(m.current), string(event))
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i].guards, m.current, event) {
			return &candidates[i], nil
		}
	}
	return nil, rejected(string(m.current), string(event))
}

func guardsPass[S, E Key](ctx context.Context, guards []Guard[S, E], from S, event E) bool {
	for _, g := range guards {
		if !g(ctx, from, event) {
			return false
		}
	}
	return true
}

// Reset returns the machine to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

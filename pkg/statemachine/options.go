package statemachine

// Option configures a machine during construction.
type Option[S, E Key] func(*Machine[S, E]) error

// TransitionOption attaches guards or actions to a single transition.
type TransitionOption[S, E Key] func(*transitionConfig[S, E])

type transitionConfig[S, E Key] struct {
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// WithTransition registers from -> to on event.
func WithTransition[S, E Key](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		cfg := &transitionConfig[S, E]{}
		for _, opt := range opts {
			opt(cfg)
		}
		return m.add(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTerminal marks states that accept no further events.
func WithTerminal[S, E Key](states ...S) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, s := range states {
			m.terminal[s] = struct{}{}
		}
		return nil
	}
}

func WithGuard[S, E Key](guard Guard[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

func WithAction[S, E Key](action Action[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

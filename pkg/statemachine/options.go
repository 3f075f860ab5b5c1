package statemachine

// Option configures a state machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// New creates a state machine with the given initial state and options.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := newMachine[S, E](initial)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransition adds a single transition to the state machine.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		m.AddTransition(t)
	}
}

// WithTransitions adds multiple transitions at once.
func WithTransitions[S, E comparable](transitions ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		for _, t := range transitions {
			m.AddTransition(t)
		}
	}
}

// OnEnter registers a hook that runs every time state is entered.
func OnEnter[S, E comparable](state S, hook Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if hook != nil {
			m.onEnter[state] = append(m.onEnter[state], hook)
		}
	}
}

// OnExit registers a hook that runs every time state is left.
func OnExit[S, E comparable](state S, hook Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if hook != nil {
			m.onExit[state] = append(m.onExit[state], hook)
		}
	}
}

// WithGuard adds guards to a transition.
func WithGuard[S, E comparable](guards ...Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		for _, g := range guards {
			if g != nil {
				t.Guards = append(t.Guards, g)
			}
		}
	}
}

// WithAction adds actions to a transition.
func WithAction[S, E comparable](actions ...Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		for _, a := range actions {
			if a != nil {
				t.Actions = append(t.Actions, a)
			}
		}
	}
}

package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine is a thread-safe in-memory state machine over comparable state and event types.
// Transitions are indexed as [from][event][]Transition for O(1) lookups.
type Machine[S, E comparable] struct {
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	onEnter     map[S][]Hook[S, E]
	onExit      map[S][]Hook[S, E]
	mu          sync.RWMutex
}

func newMachine[S, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
		onEnter:     make(map[S][]Hook[S, E]),
		onExit:      make(map[S][]Hook[S, E]),
	}
}

// Current returns the active state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the active state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if s == m.current {
			return true
		}
	}
	return false
}

// AddTransition registers a transition. Several transitions may share a
// from/event pair; the first one whose guards pass wins.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire triggers event. Actions run before the state changes and any action
// error aborts the transition. Exit hooks of the old state and enter hooks of
// the new state run after the change, only when the state actually differs.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return &NoTransitionError[S, E]{State: from, Event: event}
	}

	t := m.selectLocked(ctx, candidates, event, data)
	if t == nil {
		return &RejectedError[S, E]{State: from, Event: event}
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	if from == t.To {
		return nil
	}
	for _, hook := range m.onExit[from] {
		hook(ctx, from, t.To, event, data)
	}
	for _, hook := range m.onEnter[t.To] {
		hook(ctx, from, t.To, event, data)
	}
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectLocked(ctx, m.transitions[m.current][event], event, data) != nil
}

// Events lists the events that have at least one transition out of the current state.
func (m *Machine[S, E]) Events() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]E, 0, len(m.transitions[m.current]))
	for e, ts := range m.transitions[m.current] {
		if len(ts) > 0 {
			events = append(events, e)
		}
	}
	return events
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// Must be called with lock held.
func (m *Machine[S, E]) selectLocked(ctx context.Context, candidates []Transition[S, E], event E, data any) *Transition[S, E] {
	for i, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i]
		}
	}
	return nil
}

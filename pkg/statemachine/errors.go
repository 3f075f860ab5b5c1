package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransition       = errors.New("no transition available")
	ErrTransitionRejected = errors.New("transition rejected by guards")
)

// NoTransitionError indicates no transition exists for the given state/event combination.
type NoTransitionError[S, E comparable] struct {
	State S
	Event E
}

func (e *NoTransitionError[S, E]) Error() string {
	return fmt.Sprintf("no transition available from state '%v' for event '%v'", e.State, e.Event)
}

func (e *NoTransitionError[S, E]) Unwrap() error { return ErrNoTransition }

// RejectedError indicates all candidate transitions were blocked by guards.
type RejectedError[S, E comparable] struct {
	State S
	Event E
}

func (e *RejectedError[S, E]) Error() string {
	return fmt.Sprintf("transition from state '%v' for event '%v' was rejected by guards", e.State, e.Event)
}

func (e *RejectedError[S, E]) Unwrap() error { return ErrTransitionRejected }

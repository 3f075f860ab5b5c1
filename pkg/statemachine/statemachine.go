package statemachine

import (
	"context"
)

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Hook observes a completed state change. Hooks run with the machine locked
// and must not call back into it.
type Hook[S, E comparable] func(ctx context.Context, from, to S, event E, data any)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before state change
}

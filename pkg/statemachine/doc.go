// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, usually string-based enums:
//
//	type Phase string
//	type Trigger string
//
//	m := statemachine.New[Phase, Trigger]("idle",
//		statemachine.WithTransition[Phase, Trigger]("idle", "busy", "start"),
//		statemachine.WithTransition[Phase, Trigger]("busy", "idle", "stop"),
//		statemachine.OnEnter[Phase, Trigger]("busy", func(ctx context.Context, from, to Phase, ev Trigger, data any) {
//			// acquire resources
//		}),
//	)
//	err := m.Fire(ctx, "start", nil)
//
// Guards decide between candidate transitions, actions run before the state
// changes and may abort it, hooks run after it. Fire returns a
// *NoTransitionError or *RejectedError, both matching the sentinel errors via
// errors.Is.
package statemachine

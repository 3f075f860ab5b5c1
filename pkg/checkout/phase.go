package checkout

import (
	"fmt"

	"github.com/paydesk/console/pkg/statemachine"
)

// Phase is the state of a checkout flow.
type Phase uint8

const (
	// PhaseIdle shows the checkout form.
	PhaseIdle Phase = iota
	// PhaseSubmitting has a create-subscription or initiate call in flight.
	PhaseSubmitting
	// PhasePending holds a mobile-money transaction and polls its status.
	PhasePending
	PhaseSucceeded
	PhaseFailed
	// PhaseUnresolved means polling stopped without a recognized outcome:
	// an unknown status or an exhausted poll budget.
	PhaseUnresolved
	// PhaseRedirecting has handed the browser to the hosted card checkout.
	PhaseRedirecting
)

var phaseNames = [...]string{
	PhaseIdle:        "idle",
	PhaseSubmitting:  "submitting",
	PhasePending:     "pending",
	PhaseSucceeded:   "succeeded",
	PhaseFailed:      "failed",
	PhaseUnresolved:  "unresolved",
	PhaseRedirecting: "redirecting",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", p)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Terminal reports whether the phase ends the flow without user action.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseRedirecting
}

type event string

const (
	evSubmit    event = "submit"
	evAccepted  event = "accepted"
	evRejected  event = "rejected"
	evRedirect  event = "redirect"
	evSucceed   event = "succeed"
	evFail      event = "fail"
	evUnresolve event = "unresolve"
	evCancel    event = "cancel"
	evRetry     event = "retry"
)

type machine = statemachine.Machine[Phase, event]

type hook = statemachine.Hook[Phase, event]

// newMachine wires the flow's transition table. Hooks run with the flow lock held.
func newMachine(onEnterPending, onExitPending, onEnterIdle hook, onFail statemachine.Action[Phase, event]) *machine {
	return statemachine.New(PhaseIdle,
		statemachine.WithTransition(PhaseIdle, PhaseSubmitting, evSubmit),
		statemachine.WithTransition(PhaseSubmitting, PhasePending, evAccepted),
		statemachine.WithTransition(PhaseSubmitting, PhaseIdle, evRejected),
		statemachine.WithTransition(PhaseSubmitting, PhaseRedirecting, evRedirect),
		statemachine.WithTransition(PhaseRedirecting, PhaseIdle, evRejected),
		statemachine.WithTransition(PhasePending, PhaseSucceeded, evSucceed),
		statemachine.WithTransition(PhasePending, PhaseFailed, evFail,
			statemachine.WithAction(onFail)),
		statemachine.WithTransition(PhasePending, PhaseUnresolved, evUnresolve),
		statemachine.WithTransition(PhasePending, PhaseIdle, evCancel),
		statemachine.WithTransition(PhaseFailed, PhaseIdle, evRetry),
		statemachine.WithTransition(PhaseUnresolved, PhaseIdle, evRetry),
		statemachine.WithTransition(PhaseUnresolved, PhaseIdle, evCancel),
		statemachine.OnEnter(PhasePending, onEnterPending),
		statemachine.OnExit(PhasePending, onExitPending),
		statemachine.OnEnter(PhaseIdle, onEnterIdle),
	)
}

package checkout

import (
	"fmt"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/money"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
)

// User-facing texts.
const (
	LabelRedirect   = "Continue to Payment"
	LabelMoMo       = "Send Payment Request"
	LabelProcessing = "Processing..."
	LabelRetry      = "Try Again"
	LabelCancel     = "Cancel"

	SecurityNotice = "Secured by industry-standard encryption"

	msgPendingTitle    = "Waiting for Payment"
	msgPendingBody     = "Please check your phone and approve the payment request."
	msgSucceededTitle  = "Payment Successful!"
	msgSucceededBody   = "Your subscription has been activated."
	msgFailedTitle     = "Payment Failed"
	msgFailedBody      = "The payment could not be processed."
	msgUnresolvedTitle = "Still Processing"
	msgUnresolvedBody  = "We could not confirm the payment yet. Check back later."
	msgNoMethods       = "No payment methods available"

	msgRequestSent    = "Payment request sent to your phone. Please approve the transaction."
	msgPaymentSuccess = "Payment successful!"
	msgInitiateFailed = "Failed to initiate payment"
	msgCreateFailed   = "Failed to create subscription"
)

// View is a render model of a flow at one point in time.
type View struct {
	FlowID  string `json:"flow_id"`
	Version uint64 `json:"version"`
	Phase   Phase  `json:"phase"`

	Plan    PlanSummary `json:"plan"`
	Methods MethodsView `json:"methods"`
	// Phone is nil when the active method takes no phone number.
	Phone  *PhoneView `json:"phone,omitempty"`
	Action ActionView `json:"action"`
	// Panel replaces the form while a transaction exists.
	Panel *Panel `json:"panel,omitempty"`

	CanCancel   bool          `json:"can_cancel"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Notice      *Notification `json:"notice,omitempty"`
	Security    string        `json:"security"`
}

// ShowForm reports whether the plan summary and form are rendered.
func (v View) ShowForm() bool {
	return v.Panel == nil
}

// PlanSummary is the displayed plan.
type PlanSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Interval    string   `json:"interval,omitempty"`
	TrialBadge  string   `json:"trial_badge,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// MethodsView is the payment method chooser.
type MethodsView struct {
	Active paymethod.Method `json:"active"`
	// Choices is empty when the chooser is hidden.
	Choices []MethodChoice `json:"choices,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// MethodChoice is one selectable card.
type MethodChoice struct {
	Method      paymethod.Method `json:"method"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Selected    bool             `json:"selected"`
}

// PhoneView is the phone input.
type PhoneView struct {
	Country     phone.Country   `json:"country"`
	Countries   []phone.Country `json:"countries"`
	Value       string          `json:"value"`
	Placeholder string          `json:"placeholder"`
	Hint        string          `json:"hint"`
	Error       string          `json:"error,omitempty"`
}

// ActionView is the primary button.
type ActionView struct {
	Label    string `json:"label"`
	Busy     bool   `json:"busy"`
	Disabled bool   `json:"disabled"`
}

// Panel is the pending or outcome panel.
type Panel struct {
	Phase          Phase  `json:"phase"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	CanRetry       bool   `json:"can_retry"`
	CanCancel      bool   `json:"can_cancel"`
}

func summarize(p billingapi.Plan, f func(money.Money) string) PlanSummary {
	s := PlanSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       f(p.Price()),
		Interval:    string(p.Interval),
		Features:    p.Features,
	}
	if p.TrialDays > 0 {
		s.TrialBadge = fmt.Sprintf("%d day free trial", p.TrialDays)
	}
	return s
}

// actionLabel names the primary action for the active method.
func actionLabel(m paymethod.Method, busy bool) string {
	if busy {
		return LabelProcessing
	}
	switch m {
	case paymethod.MoMo:
		return LabelMoMo
	case paymethod.Stripe, paymethod.Paystack, paymethod.None:
		return LabelRedirect
	}
	return LabelRedirect
}

func panelFor(phase Phase, ref, reason string) *Panel {
	switch phase {
	case PhasePending:
		return &Panel{Phase: phase, Title: msgPendingTitle, Message: msgPendingBody, TransactionRef: ref, CanCancel: true}
	case PhaseSucceeded:
		return &Panel{Phase: phase, Title: msgSucceededTitle, Message: msgSucceededBody, TransactionRef: ref}
	case PhaseFailed:
		if reason == "" {
			reason = msgFailedBody
		}
		return &Panel{Phase: phase, Title: msgFailedTitle, Message: reason, TransactionRef: ref, CanRetry: true}
	case PhaseUnresolved:
		return &Panel{Phase: phase, Title: msgUnresolvedTitle, Message: msgUnresolvedBody, TransactionRef: ref, CanRetry: true, CanCancel: true}
	case PhaseIdle, PhaseSubmitting, PhaseRedirecting:
		return nil
	}
	return nil
}

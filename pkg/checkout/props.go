package checkout

import (
	"context"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
	"github.com/paydesk/console/pkg/validator"
)

// Result describes a completed mobile-money checkout.
type Result struct {
	FlowID         string
	PlanID         int64
	CustomerID     int64
	Method         paymethod.Method
	TransactionRef string
}

// Props are supplied by the host of a flow.
type Props struct {
	Plan       billingapi.Plan
	CustomerID int64
	// SuccessURL and CancelURL are absolute return URLs for hosted checkout.
	SuccessURL string
	CancelURL  string

	Capabilities paymethod.Capabilities
	// Method is the initially active method; resolution may override it.
	Method paymethod.Method
	// Country preselects the phone country; zero uses the configured default.
	Country phone.Country

	// OnSuccess runs once when a mobile-money payment succeeds.
	OnSuccess func(ctx context.Context, r Result)
	// OnCancel runs when the user abandons the checkout. Nil hides the cancel action.
	OnCancel func(ctx context.Context)
}

func (p Props) validate() error {
	rules := []validator.Rule{
		validator.Positive("plan_id", p.Plan.ID),
		validator.Positive("customer_id", p.CustomerID),
	}
	if p.SuccessURL != "" {
		rules = append(rules, validator.AbsoluteURL("success_url", p.SuccessURL))
	}
	if p.CancelURL != "" {
		rules = append(rules, validator.AbsoluteURL("cancel_url", p.CancelURL))
	}
	return validator.Apply(rules...)
}

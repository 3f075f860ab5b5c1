package billingapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/paydesk/console/pkg/validator"
)

// CreateSubscription starts a hosted checkout for the card (redirect) rail.
// It is sent once: retrying after a network failure is the caller's decision
// because the backend takes no idempotency key.
func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*CheckoutSession, error) {
	rules := []validator.Rule{
		validator.Positive("customer_id", req.CustomerID),
		validator.Positive("plan_id", req.PlanID),
	}
	if req.SuccessURL != "" {
		rules = append(rules, validator.AbsoluteURL("success_url", req.SuccessURL))
	}
	if req.CancelURL != "" {
		rules = append(rules, validator.AbsoluteURL("cancel_url", req.CancelURL))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	var out CheckoutSession
	if err := c.post(ctx, "/auth/subscriptions/create/", req, &out); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	if strings.TrimSpace(out.CheckoutURL) == "" {
		return nil, ErrNoCheckoutURL
	}
	return &out, nil
}

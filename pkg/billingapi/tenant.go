package billingapi

import (
	"context"
	"fmt"
)

// StripeStatus returns the tenant's Stripe Connect state.
func (c *Client) StripeStatus(ctx context.Context) (*StripeStatus, error) {
	var out StripeStatus
	if err := c.get(ctx, "/auth/tenants/stripe/status/", nil, &out); err != nil {
		return nil, fmt.Errorf("stripe status: %w", err)
	}
	return &out, nil
}

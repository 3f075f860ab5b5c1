package billingapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PlanFilter narrows the plan listing.
type PlanFilter struct {
	ActiveOnly bool
	Search     string
}

// ListPlans returns the tenant's plans.
func (c *Client) ListPlans(ctx context.Context, f PlanFilter) ([]Plan, error) {
	q := url.Values{}
	if f.ActiveOnly {
		q.Set("is_active", "true")
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}

	var page Page[Plan]
	if err := c.get(ctx, "/auth/plans/", q, &page); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return page.Results, nil
}

// GetPlan fetches one plan. A missing plan matches ErrNotFound.
func (c *Client) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	if err := c.get(ctx, "/auth/plans/"+strconv.FormatInt(id, 10)+"/", nil, &p); err != nil {
		return nil, fmt.Errorf("get plan %d: %w", id, err)
	}
	return &p, nil
}

package billingapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/paydesk/console/pkg/validator"
)

// InitiateMoMo pushes a payment prompt to the customer's phone. The returned
// initiation carries the reference to poll with MoMoStatus. Never retried.
func (c *Client) InitiateMoMo(ctx context.Context, req MoMoInitiateRequest) (*MoMoInitiation, error) {
	if err := validator.Apply(
		validator.Positive("customer_id", req.CustomerID),
		validator.Positive("plan_id", req.PlanID),
		validator.MinDigits("phone_number", req.PhoneNumber, 10, ""),
	); err != nil {
		return nil, err
	}

	var out MoMoInitiation
	if err := c.post(ctx, "/payments/momo/initiate/", req, &out); err != nil {
		return nil, fmt.Errorf("initiate mobile money payment: %w", err)
	}
	if out.Reference() == "" {
		return nil, ErrNoReference
	}
	return &out, nil
}

// MoMoStatus fetches the current settlement status of a transaction.
func (c *Client) MoMoStatus(ctx context.Context, ref string) (*MoMoStatus, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNoReference
	}

	var out MoMoStatus
	if err := c.get(ctx, "/payments/momo/"+url.PathEscape(ref)+"/status/", nil, &out); err != nil {
		return nil, fmt.Errorf("mobile money status %s: %w", ref, err)
	}
	return &out, nil
}

// ListMoMoPayments lists mobile-money payments for the tenant.
func (c *Client) ListMoMoPayments(ctx context.Context, f MoMoPaymentFilter) (*Page[MoMoPayment], error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.CustomerID > 0 {
		q.Set("customer_id", strconv.FormatInt(f.CustomerID, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var page Page[MoMoPayment]
	if err := c.get(ctx, "/payments/momo/", q, &page); err != nil {
		return nil, fmt.Errorf("list mobile money payments: %w", err)
	}
	return &page, nil
}

// MoMoConfig returns the tenant's mobile-money configuration.
func (c *Client) MoMoConfig(ctx context.Context) (*MoMoConfig, error) {
	var out MoMoConfig
	if err := c.get(ctx, "/payments/momo/config/", nil, &out); err != nil {
		return nil, fmt.Errorf("mobile money config: %w", err)
	}
	return &out, nil
}

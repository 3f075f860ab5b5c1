package billingapi

import (
	"encoding/json"
	"strings"

	"github.com/paydesk/console/pkg/money"
)

// Interval is a plan's billing period.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// UnmarshalText accepts the adjective forms some endpoints return ("monthly").
func (i *Interval) UnmarshalText(b []byte) error {
	switch s := strings.ToLower(strings.TrimSpace(string(b))); s {
	case "daily":
		*i = IntervalDay
	case "weekly":
		*i = IntervalWeek
	case "monthly":
		*i = IntervalMonth
	case "yearly", "annual", "annually":
		*i = IntervalYear
	default:
		*i = Interval(s)
	}
	return nil
}

// Plan is a subscription plan as served by the billing API. Plans are read-only here.
type Plan struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Interval    Interval `json:"billing_interval"`
	TrialDays   int      `json:"trial_days,omitempty"`
	Features    []string `json:"features"`
	IsActive    bool     `json:"is_active"`
}

// Price returns the plan price as Money.
func (p Plan) Price() money.Money {
	return money.New(p.PriceCents, p.Currency)
}

// UnmarshalJSON fills Features from features_json when the list form is absent,
// and accepts trial_period_days and billing_period aliases.
func (p *Plan) UnmarshalJSON(b []byte) error {
	type plain Plan
	aux := struct {
		*plain
		FeaturesJSON    json.RawMessage `json:"features_json"`
		TrialPeriodDays *int            `json:"trial_period_days"`
		BillingPeriod   *Interval       `json:"billing_period"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	if len(p.Features) == 0 && len(aux.FeaturesJSON) > 0 {
		var list []string
		if err := json.Unmarshal(aux.FeaturesJSON, &list); err == nil {
			p.Features = list
		}
	}
	if p.TrialDays == 0 && aux.TrialPeriodDays != nil {
		p.TrialDays = *aux.TrialPeriodDays
	}
	if p.Interval == "" && aux.BillingPeriod != nil {
		p.Interval = *aux.BillingPeriod
	}
	return nil
}

// Page is a paginated list response.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare array.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}
	var env struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*p = Page[T]{Count: env.Count, Next: env.Next, Previous: env.Previous, Results: env.Results}
	return nil
}

// CreateSubscriptionRequest starts a hosted (redirect) checkout.
type CreateSubscriptionRequest struct {
	CustomerID int64  `json:"customer_id"`
	PlanID     int64  `json:"plan_id"`
	Quantity   int    `json:"quantity,omitempty"`
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

// CheckoutSession is the provider-hosted checkout the browser is sent to.
type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
}

// MoMoInitiateRequest pushes a payment prompt to a phone.
type MoMoInitiateRequest struct {
	CustomerID  int64  `json:"customer_id"`
	PlanID      int64  `json:"plan_id"`
	PhoneNumber string `json:"phone_number"`
	Currency    string `json:"currency,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// MoMoInitiation is the server's acknowledgement of a payment prompt.
type MoMoInitiation struct {
	TransactionID string `json:"transaction_id"`
	PaymentID     int64  `json:"payment_id"`
	ReferenceID   string `json:"reference_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	Instructions  string `json:"instructions"`
}

// Reference identifies the transaction for status polling: the payment id
// when the server assigned one, otherwise the transaction or reference id.
func (m MoMoInitiation) Reference() string {
	if m.PaymentID > 0 {
		return formatID(m.PaymentID)
	}
	if m.TransactionID != "" {
		return m.TransactionID
	}
	return m.ReferenceID
}

// MoMoStatus is one poll of a transaction's settlement status.
type MoMoStatus struct {
	Status         string `json:"status"`
	MoMoStatus     string `json:"momo_status"`
	TransactionID  string `json:"transaction_id"`
	PaymentID      int64  `json:"payment_id"`
	FailureReason  string `json:"failure_reason"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
	Error          string `json:"error"`
}

// State normalizes the raw status.
func (s MoMoStatus) State() PaymentState {
	return ParseState(s.Status)
}

// Reason returns the first server-supplied failure explanation.
func (s MoMoStatus) Reason() string {
	for _, r := range []string{s.FailureReason, s.FailureMessage, s.Error} {
		if r = strings.TrimSpace(r); r != "" {
			return r
		}
	}
	return ""
}

// MoMoPayment is a row of the mobile-money payments listing.
type MoMoPayment struct {
	ID                int64   `json:"id"`
	CustomerID        int64   `json:"customer_id"`
	CustomerEmail     string  `json:"customer_email"`
	SubscriptionID    *int64  `json:"subscription_id"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	Provider          string  `json:"provider"`
	ProviderPaymentID string  `json:"provider_payment_id"`
	FailureMessage    *string `json:"failure_message"`
	CreatedAt         string  `json:"created_at"`
}

// MoMoPaymentFilter narrows the payments listing.
type MoMoPaymentFilter struct {
	Status     string
	CustomerID int64
	Limit      int
	Offset     int
}

// MoMoConfig is the tenant's mobile-money provider configuration.
type MoMoConfig struct {
	Enabled        bool    `json:"enabled"`
	Provider       *string `json:"provider"`
	MerchantID     *string `json:"merchant_id"`
	Sandbox        bool    `json:"sandbox"`
	HasCredentials bool    `json:"has_credentials"`
}

// StripeStatus is the tenant's Stripe Connect state.
type StripeStatus struct {
	Connected      bool   `json:"connected"`
	AccountID      string `json:"account_id"`
	ChargesEnabled bool   `json:"charges_enabled"`
}

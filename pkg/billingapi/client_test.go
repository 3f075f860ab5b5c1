package billingapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/requestid"
	"github.com/paydesk/console/pkg/validator"
)

func newClient(t *testing.T, h http.Handler, cfg billingapi.Config, opts ...billingapi.Option) *billingapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL + "/api/v1"
	opts = append([]billingapi.Option{billingapi.WithBackoff(billingapi.NoBackoff{})}, opts...)
	c, err := billingapi.New(cfg, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	t.Parallel()
	for _, u := range []string{"", "localhost:8000", "ftp://x/api"} {
		_, err := billingapi.New(billingapi.Config{BaseURL: u})
		assert.Error(t, err, u)
	}
}

func TestCreateSubscription(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var headers http.Header
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/subscriptions/create/", r.URL.Path)
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]string{"checkout_url": "https://pay.example/abc"})
	})
	c := newClient(t, h, billingapi.Config{AccessToken: "tok", APIKey: "key", TenantID: "t-1"})

	ctx := requestid.WithContext(context.Background(), "req-9")
	sess, err := c.CreateSubscription(ctx, billingapi.CreateSubscriptionRequest{
		CustomerID: 1,
		PlanID:     1,
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/checkout",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", sess.CheckoutURL)

	assert.Equal(t, map[string]any{
		"customer_id": float64(1),
		"plan_id":     float64(1),
		"success_url": "https://shop.example/success",
		"cancel_url":  "https://shop.example/checkout",
	}, got)
	assert.Equal(t, "Bearer tok", headers.Get("Authorization"))
	assert.Equal(t, "key", headers.Get("X-API-Key"))
	assert.Equal(t, "t-1", headers.Get("X-Tenant-ID"))
	assert.Equal(t, "req-9", headers.Get(requestid.Header))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestCreateSubscriptionErrors(t *testing.T) {
	t.Parallel()

	t.Run("validation happens before the call", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }), billingapi.Config{})

		_, err := c.CreateSubscription(context.Background(), billingapi.CreateSubscriptionRequest{PlanID: 1, SuccessURL: "/success"})
		verrs := validator.ExtractValidationErrors(err)
		require.NotNil(t, verrs)
		assert.True(t, verrs.Has("customer_id"))
		assert.True(t, verrs.Has("success_url"))
		assert.Zero(t, calls.Load())
	})

	t.Run("missing checkout url", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		}), billingapi.Config{})

		_, err := c.CreateSubscription(context.Background(), billingapi.CreateSubscriptionRequest{CustomerID: 1, PlanID: 1})
		assert.ErrorIs(t, err, billingapi.ErrNoCheckoutURL)
	})

	t.Run("server errors are not retried on POST", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "Stripe unavailable"})
		}), billingapi.Config{MaxRetries: 3})

		_, err := c.CreateSubscription(context.Background(), billingapi.CreateSubscriptionRequest{CustomerID: 1, PlanID: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, billingapi.ErrTemporaryFailure)
		assert.Equal(t, "Stripe unavailable", billingapi.Message(err, "fallback"))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestGetRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "name": "Pro", "price_cents": 2999, "currency": "USD", "billing_interval": "month"})
	}), billingapi.Config{MaxRetries: 2})

	p, err := c.GetPlan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}), billingapi.Config{MaxRetries: 3})

	_, err := c.GetPlan(context.Background(), 404)
	assert.ErrorIs(t, err, billingapi.ErrNotFound)
	assert.ErrorIs(t, err, billingapi.ErrPermanentFailure)

	var apiErr *billingapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not found.", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefreshOnUnauthorized(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/tenants/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "refresh-1", body["refresh"])
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})
	mux.HandleFunc("GET /api/v1/auth/plans/1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "Basic"})
	})

	c := newClient(t, mux, billingapi.Config{AccessToken: "stale", RefreshToken: "refresh-1"})

	p, err := c.GetPlan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Basic", p.Name)

	_, err = c.GetPlan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestRefreshFailureSurfacesUnauthorized(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/tenants/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
	})
	mux.HandleFunc("GET /api/v1/auth/plans/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})

	c := newClient(t, mux, billingapi.Config{AccessToken: "stale", RefreshToken: "refresh-1"})
	_, err := c.GetPlan(context.Background(), 1)
	assert.ErrorIs(t, err, billingapi.ErrUnauthorized)
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), billingapi.Config{CircuitFailures: 2, CircuitRecovery: time.Hour})

	for range 2 {
		_, err := c.MoMoStatus(context.Background(), "tx_1")
		assert.ErrorIs(t, err, billingapi.ErrTemporaryFailure)
	}
	_, err := c.MoMoStatus(context.Background(), "tx_1")
	assert.ErrorIs(t, err, billingapi.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, billingapi.CircuitOpen, c.Breaker().State())
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), billingapi.Config{}, billingapi.WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.StripeStatus(context.Background())
	assert.ErrorIs(t, err, billingapi.ErrTimeout)
}

func TestForSession(t *testing.T) {
	t.Parallel()

	var auth atomic.Value
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization") + "|" + r.Header.Get("X-API-Key"))
		writeJSON(w, http.StatusOK, map[string]any{"enabled": true})
	}), billingapi.Config{AccessToken: "service"})

	cfg, err := c.ForSession(billingapi.StaticSession("merchant", "mk")).MoMoConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "Bearer merchant|mk", auth.Load())
}

func TestMessage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "fallback", billingapi.Message(errors.New("boom"), "fallback"))
	assert.Equal(t, "fallback", billingapi.Message(nil, "fallback"))
}

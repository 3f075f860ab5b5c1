package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/paymethod"
)

type nopBackend struct{}

func (nopBackend) CreateSubscription(context.Context, billingapi.CreateSubscriptionRequest) (*billingapi.CheckoutSession, error) {
	return &billingapi.CheckoutSession{CheckoutURL: "https://pay.example/x"}, nil
}

func (nopBackend) InitiateMoMo(context.Context, billingapi.MoMoInitiateRequest) (*billingapi.MoMoInitiation, error) {
	return &billingapi.MoMoInitiation{TransactionID: "tx"}, nil
}

func (nopBackend) MoMoStatus(context.Context, string) (*billingapi.MoMoStatus, error) {
	return &billingapi.MoMoStatus{Status: "pending"}, nil
}

func newFlow(t *testing.T) *checkout.Flow {
	t.Helper()
	f, err := checkout.New(checkout.Props{
		Plan:         billingapi.Plan{ID: 1, Name: "Basic", PriceCents: 1000, Currency: "USD", IsActive: true},
		CustomerID:   5,
		Capabilities: paymethod.Capabilities{StripeEnabled: true},
	}, nopBackend{})
	require.NoError(t, err)
	return f
}

func TestRegistryGetAndRemove(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(10, time.Minute, nil)
	f := newFlow(t)
	reg.Add(f)

	got, ok := reg.Get(f.ID())
	require.True(t, ok)
	assert.Same(t, f, got)

	reg.Remove(f.ID())
	_, ok = reg.Get(f.ID())
	assert.False(t, ok)
	assert.True(t, f.Closed())
}

func TestRegistryExpiresFlows(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(10, 20*time.Millisecond, logger.Discard())
	f := newFlow(t)
	reg.Add(f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.Run(ctx, 5*time.Millisecond)

	require.Eventually(t, f.Closed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(1, time.Minute, nil)
	first, second := newFlow(t), newFlow(t)
	reg.Add(first)
	reg.Add(second)

	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryDropsClosedFlows(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(10, time.Minute, nil)
	f := newFlow(t)
	reg.Add(f)
	f.Close()

	_, ok := reg.Get(f.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryClose(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(10, time.Minute, nil)
	a, b := newFlow(t), newFlow(t)
	reg.Add(a)
	reg.Add(b)

	reg.Close()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, reg.Len())
}

type capabilitySource struct {
	momo      bool
	momoErr   error
	stripe    bool
	stripeErr error
}

func (c capabilitySource) MoMoConfig(context.Context) (*billingapi.MoMoConfig, error) {
	if c.momoErr != nil {
		return nil, c.momoErr
	}
	return &billingapi.MoMoConfig{Enabled: c.momo}, nil
}

func (c capabilitySource) StripeStatus(context.Context) (*billingapi.StripeStatus, error) {
	if c.stripeErr != nil {
		return nil, c.stripeErr
	}
	return &billingapi.StripeStatus{Connected: c.stripe}, nil
}

func TestDetectCapabilities(t *testing.T) {
	t.Parallel()
	static := paymethod.Capabilities{StripeEnabled: true, MoMoEnabled: true}

	tests := []struct {
		name   string
		src    capabilitySource
		static paymethod.Capabilities
		want   paymethod.Capabilities
	}{
		{
			name:   "both answered",
			src:    capabilitySource{momo: true, stripe: false},
			static: static,
			want:   paymethod.Capabilities{MoMoEnabled: true},
		},
		{
			name:   "failed lookup keeps static flag",
			src:    capabilitySource{momoErr: errors.New("down"), stripe: false},
			static: static,
			want:   paymethod.Capabilities{MoMoEnabled: true},
		},
		{
			name:   "forced provider untouched",
			src:    capabilitySource{},
			static: paymethod.Capabilities{StripeEnabled: true, Forced: paymethod.Paystack},
			want:   paymethod.Capabilities{StripeEnabled: true, Forced: paymethod.Paystack},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := detectCapabilities(context.Background(), tt.src, tt.static, logger.Discard())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitLimitUnlimited(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.SubmitRate = 0
	l := newSubmitLimiter(cfg.submitLimit(), cfg.SubmitBurst)
	for range 20 {
		assert.True(t, l.Allow(httptest.NewRequest(http.MethodPost, "/", nil)))
	}
}

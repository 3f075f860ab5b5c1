package checkout_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
	"github.com/paydesk/console/pkg/validator"
)

type fakeBackend struct {
	mu        sync.Mutex
	created   []billingapi.CreateSubscriptionRequest
	initiated []billingapi.MoMoInitiateRequest
	polled    []string

	session     *billingapi.CheckoutSession
	createErr   error
	initiation  *billingapi.MoMoInitiation
	initiateErr error
	// statuses are returned in order; the last one repeats.
	statuses  []billingapi.MoMoStatus
	statusErr error
}

func (b *fakeBackend) CreateSubscription(_ context.Context, req billingapi.CreateSubscriptionRequest) (*billingapi.CheckoutSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, req)
	if b.createErr != nil {
		return nil, b.createErr
	}
	return b.session, nil
}

func (b *fakeBackend) InitiateMoMo(_ context.Context, req billingapi.MoMoInitiateRequest) (*billingapi.MoMoInitiation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initiated = append(b.initiated, req)
	if b.initiateErr != nil {
		return nil, b.initiateErr
	}
	return b.initiation, nil
}

func (b *fakeBackend) MoMoStatus(_ context.Context, ref string) (*billingapi.MoMoStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polled = append(b.polled, ref)
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	st := b.statuses[0]
	if len(b.statuses) > 1 {
		b.statuses = b.statuses[1:]
	}
	return &st, nil
}

func (b *fakeBackend) polls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.polled)
}

func (b *fakeBackend) initiations() []billingapi.MoMoInitiateRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]billingapi.MoMoInitiateRequest(nil), b.initiated...)
}

func testPlan() billingapi.Plan {
	return billingapi.Plan{
		ID:         7,
		Name:       "Pro",
		PriceCents: 4900,
		Currency:   "GHS",
		Interval:   billingapi.IntervalMonth,
		TrialDays:  14,
		Features:   []string{"Unlimited invoices"},
		IsActive:   true,
	}
}

func testConfig() checkout.Config {
	cfg := checkout.DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func momoProps() checkout.Props {
	return checkout.Props{
		Plan:         testPlan(),
		CustomerID:   42,
		Capabilities: paymethod.Capabilities{MoMoEnabled: true},
	}
}

func newFlow(t *testing.T, props checkout.Props, b *fakeBackend, opts ...checkout.Option) *checkout.Flow {
	t.Helper()
	opts = append([]checkout.Option{checkout.WithConfig(testConfig())}, opts...)
	f, err := checkout.New(props, b, opts...)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func status(s string) billingapi.MoMoStatus {
	return billingapi.MoMoStatus{Status: s}
}

func waitPhase(t *testing.T, f *checkout.Flow, want checkout.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return f.Phase() == want }, 2*time.Second, 5*time.Millisecond,
		"phase %s never reached, got %s", want, f.Phase())
}

func TestNewValidatesProps(t *testing.T) {
	t.Parallel()

	_, err := checkout.New(checkout.Props{Plan: testPlan()}, &fakeBackend{})
	require.Error(t, err)
	assert.True(t, validator.ExtractValidationErrors(err).Has("customer_id"))

	props := momoProps()
	props.SuccessURL = "/relative"
	_, err = checkout.New(props, &fakeBackend{})
	assert.True(t, validator.ExtractValidationErrors(err).Has("success_url"))

	_, err = checkout.New(momoProps(), nil)
	assert.Error(t, err)
}

func TestCardCheckout(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{session: &billingapi.CheckoutSession{CheckoutURL: "https://pay.example/abc"}}
	var navigated string
	nav := checkout.NavigatorFunc(func(_ context.Context, url string) error {
		navigated = url
		return nil
	})

	f := newFlow(t, checkout.Props{
		Plan:         testPlan(),
		CustomerID:   42,
		SuccessURL:   "https://console.example/success",
		CancelURL:    "https://console.example/checkout",
		Capabilities: paymethod.Capabilities{StripeEnabled: true},
	}, b, checkout.WithNavigator(nav))

	v := f.View()
	assert.Equal(t, paymethod.Stripe, v.Methods.Active)
	assert.Empty(t, v.Methods.Choices, "single method hides the chooser")
	assert.Nil(t, v.Phone)
	assert.Equal(t, checkout.LabelRedirect, v.Action.Label)

	require.NoError(t, f.Submit(context.Background()))

	require.Len(t, b.created, 1)
	assert.Equal(t, billingapi.CreateSubscriptionRequest{
		CustomerID: 42,
		PlanID:     7,
		SuccessURL: "https://console.example/success",
		CancelURL:  "https://console.example/checkout",
	}, b.created[0])
	assert.Equal(t, "https://pay.example/abc", navigated)
	assert.Equal(t, checkout.PhaseRedirecting, f.Phase())
	assert.Equal(t, "https://pay.example/abc", f.View().RedirectURL)
}

func TestCardCheckoutFailureReturnsToForm(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{createErr: &billingapi.APIError{StatusCode: 400, Message: "Plan is not available"}}
	var notes []checkout.Notification
	f := newFlow(t, checkout.Props{
		Plan:         testPlan(),
		CustomerID:   42,
		Capabilities: paymethod.Capabilities{StripeEnabled: true},
	}, b, checkout.WithNotifier(checkout.NotifierFunc(func(_ context.Context, n checkout.Notification) {
		notes = append(notes, n)
	})))

	err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, checkout.PhaseIdle, f.Phase())

	v := f.View()
	assert.False(t, v.Action.Busy)
	assert.Equal(t, checkout.LabelRedirect, v.Action.Label)
	require.Len(t, notes, 1)
	assert.Equal(t, checkout.Notification{Level: checkout.LevelError, Message: "Failed to create subscription"}, notes[0])
}

func TestCardNavigationFailure(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{session: &billingapi.CheckoutSession{CheckoutURL: "https://pay.example/abc"}}
	boom := errors.New("navigation blocked")
	f := newFlow(t, checkout.Props{
		Plan:         testPlan(),
		CustomerID:   42,
		Capabilities: paymethod.Capabilities{StripeEnabled: true},
	}, b, checkout.WithNavigator(checkout.NavigatorFunc(func(context.Context, string) error { return boom })))

	err := f.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
	assert.Empty(t, f.View().RedirectURL)
}

func TestMoMoCheckoutSucceeds(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_123", Status: "pending"},
		statuses:   []billingapi.MoMoStatus{status("pending"), status("pending"), status("SUCCESS")},
	}
	var successes atomic.Int32
	results := make(chan checkout.Result, 1)
	props := momoProps()
	props.OnSuccess = func(_ context.Context, r checkout.Result) {
		results <- r
		successes.Add(1)
	}
	f := newFlow(t, props, b)

	display, err := f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, err)
	assert.Equal(t, "024 123 4567", display)
	assert.Equal(t, checkout.LabelMoMo, f.View().Action.Label)

	require.NoError(t, f.Submit(context.Background()))
	waitPhase(t, f, checkout.PhaseSucceeded)

	reqs := b.initiations()
	require.Len(t, reqs, 1)
	assert.Equal(t, "233241234567", reqs[0].PhoneNumber)
	assert.Equal(t, int64(7), reqs[0].PlanID)
	assert.Equal(t, int64(42), reqs[0].CustomerID)
	assert.Equal(t, "GH", reqs[0].CountryCode)

	var result checkout.Result
	select {
	case result = <-results:
	case <-time.After(time.Second):
		t.Fatal("success callback not called")
	}
	assert.Equal(t, 3, b.polls())
	assert.Equal(t, "tx_123", result.TransactionRef)
	assert.Equal(t, paymethod.MoMo, result.Method)

	v := f.View()
	require.NotNil(t, v.Panel)
	assert.Equal(t, "Payment Successful!", v.Panel.Title)
	assert.Equal(t, "tx_123", v.Panel.TransactionRef)
	assert.False(t, v.ShowForm())

	// polling has stopped
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, b.polls())
	assert.Equal(t, int32(1), successes.Load())
}

func TestMoMoCheckoutFails(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{PaymentID: 99},
		statuses: []billingapi.MoMoStatus{
			{Status: "FAILED", FailureReason: "Insufficient funds"},
		},
	}
	f := newFlow(t, momoProps(), b)

	_, err := f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, err)
	require.NoError(t, f.Submit(context.Background()))
	waitPhase(t, f, checkout.PhaseFailed)

	v := f.View()
	require.NotNil(t, v.Panel)
	assert.Equal(t, "Payment Failed", v.Panel.Title)
	assert.Equal(t, "Insufficient funds", v.Panel.Message)
	assert.True(t, v.Panel.CanRetry)
	assert.Equal(t, "99", f.TransactionRef())

	require.NoError(t, f.Retry(context.Background()))
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
	assert.Empty(t, f.TransactionRef())
	assert.True(t, f.View().ShowForm())
	assert.Len(t, b.initiations(), 1, "retry does not resubmit")
}

func TestMoMoFailureWithoutReason(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("expired")},
	}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))
	waitPhase(t, f, checkout.PhaseFailed)
	assert.Equal(t, "The payment could not be processed.", f.View().Panel.Message)
}

func TestMoMoRejectsShortNumber(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"}}
	f := newFlow(t, momoProps(), b)

	_, err := f.InputPhone(context.Background(), "024123456")
	require.NoError(t, err)

	err = f.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, validator.IsValidationError(err))
	assert.Empty(t, b.initiations())
	assert.Equal(t, checkout.PhaseIdle, f.Phase())

	v := f.View()
	require.NotNil(t, v.Phone)
	assert.Equal(t, "Please enter a valid phone number", v.Phone.Error)

	_, err = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, err)
	assert.Empty(t, f.View().Phone.Error, "typing clears the field error")
}

func TestMoMoRequiresPhone(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	f := newFlow(t, momoProps(), b)

	err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Phone number is required", f.View().Phone.Error)
	assert.Empty(t, b.initiations())
}

func TestMoMoInitiationError(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{initiateErr: &billingapi.APIError{StatusCode: 400, Message: "Phone number not registered"}}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")

	require.Error(t, f.Submit(context.Background()))
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
	v := f.View()
	require.NotNil(t, v.Notice)
	assert.Equal(t, checkout.LevelError, v.Notice.Level)
	assert.Equal(t, "Phone number not registered", v.Notice.Message)
	assert.Equal(t, "024 123 4567", v.Phone.Value, "input is kept for another attempt")
}

func TestMoMoInitiationWithoutReference(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{initiation: &billingapi.MoMoInitiation{Status: "pending"}}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")

	err := f.Submit(context.Background())
	require.ErrorIs(t, err, billingapi.ErrNoReference)
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
	assert.Empty(t, f.TransactionRef())

	v := f.View()
	require.NotNil(t, v.Notice)
	assert.Equal(t, checkout.LevelError, v.Notice.Level)
	assert.Equal(t, "Failed to initiate payment", v.Notice.Message)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, b.polls())
}

func TestCancelPaymentStopsPolling(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("pending")},
	}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))
	require.Eventually(t, func() bool { return b.polls() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.CancelPayment(context.Background()))
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
	assert.Empty(t, f.TransactionRef())

	time.Sleep(20 * time.Millisecond)
	settled := b.polls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, b.polls())
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
}

func TestUnknownStatusIsUnresolved(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("pending"), status("on_hold")},
	}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))
	waitPhase(t, f, checkout.PhaseUnresolved)

	v := f.View()
	require.NotNil(t, v.Panel)
	assert.Equal(t, "Still Processing", v.Panel.Title)
	assert.True(t, v.Panel.CanCancel)

	polls := b.polls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, polls, b.polls())

	require.NoError(t, f.CancelPayment(context.Background()))
	assert.Equal(t, checkout.PhaseIdle, f.Phase())
}

func TestPollBudgetExhaustedIsUnresolved(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("pending")},
	}
	cfg := testConfig()
	cfg.MaxPollAttempts = 3
	f := newFlow(t, momoProps(), b, checkout.WithConfig(cfg))
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))

	waitPhase(t, f, checkout.PhaseUnresolved)
	assert.Equal(t, 3, b.polls())
}

func TestPollErrorsKeepPolling(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statusErr:  billingapi.ErrTemporaryFailure,
	}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))

	require.Eventually(t, func() bool { return b.polls() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, checkout.PhasePending, f.Phase())
}

func TestCloseStopsPolling(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("pending")},
	}
	f := newFlow(t, momoProps(), b)
	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))
	require.Eventually(t, func() bool { return b.polls() >= 1 }, time.Second, 5*time.Millisecond)

	f.Close()
	f.Close()
	assert.True(t, f.Closed())

	time.Sleep(20 * time.Millisecond)
	settled := b.polls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, b.polls())
	assert.ErrorIs(t, f.Submit(context.Background()), checkout.ErrClosed)
}

func TestMethodSelection(t *testing.T) {
	t.Parallel()

	f := newFlow(t, checkout.Props{
		Plan:         testPlan(),
		CustomerID:   42,
		Capabilities: paymethod.Capabilities{StripeEnabled: true, MoMoEnabled: true},
	}, &fakeBackend{})

	v := f.View()
	assert.Equal(t, paymethod.Stripe, v.Methods.Active)
	require.Len(t, v.Methods.Choices, 2)
	assert.True(t, v.Methods.Choices[0].Selected)

	require.NoError(t, f.SelectMethod(context.Background(), paymethod.MoMo))
	v = f.View()
	assert.Equal(t, paymethod.MoMo, v.Methods.Active)
	require.NotNil(t, v.Phone)
	assert.Equal(t, "GH", v.Phone.Country.Code)
	assert.Equal(t, checkout.LabelMoMo, v.Action.Label)

	assert.ErrorIs(t, f.SelectMethod(context.Background(), paymethod.Paystack), paymethod.ErrNotAvailable)
}

func TestNoMethodsBlocksSubmit(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	f := newFlow(t, checkout.Props{Plan: testPlan(), CustomerID: 42}, b)

	v := f.View()
	assert.Equal(t, "No payment methods available", v.Methods.Error)
	assert.True(t, v.Action.Disabled)
	assert.ErrorIs(t, f.Submit(context.Background()), paymethod.ErrNoMethods)
	assert.Empty(t, b.created)
}

func TestSetCountryClearsNumber(t *testing.T) {
	t.Parallel()

	f := newFlow(t, momoProps(), &fakeBackend{})
	_, _ = f.InputPhone(context.Background(), "0241234567")

	require.NoError(t, f.SetCountry(context.Background(), "ug"))
	v := f.View()
	assert.Equal(t, "UG", v.Phone.Country.Code)
	assert.Empty(t, v.Phone.Value)
	assert.Equal(t, "+256", "+"+v.Phone.Country.DialCode)

	assert.ErrorIs(t, f.SetCountry(context.Background(), "XX"), phone.ErrUnknownCountry)
}

func TestViewContent(t *testing.T) {
	t.Parallel()

	props := momoProps()
	props.OnCancel = func(context.Context) {}
	f := newFlow(t, props, &fakeBackend{})

	v := f.View()
	assert.Equal(t, f.ID(), v.FlowID)
	assert.Equal(t, "Pro", v.Plan.Name)
	assert.Equal(t, "14 day free trial", v.Plan.TrialBadge)
	assert.Equal(t, []string{"Unlimited invoices"}, v.Plan.Features)
	assert.NotEmpty(t, v.Plan.Price)
	assert.Equal(t, checkout.SecurityNotice, v.Security)
	assert.True(t, v.CanCancel)
	assert.True(t, v.ShowForm())
}

func TestAbort(t *testing.T) {
	t.Parallel()

	var cancelled atomic.Bool
	props := momoProps()
	props.OnCancel = func(context.Context) { cancelled.Store(true) }
	f := newFlow(t, props, &fakeBackend{})

	require.NoError(t, f.Abort(context.Background()))
	assert.True(t, cancelled.Load())
	assert.True(t, f.Closed())
	assert.ErrorIs(t, f.Abort(context.Background()), checkout.ErrClosed)

	g := newFlow(t, momoProps(), &fakeBackend{})
	assert.ErrorIs(t, g.Abort(context.Background()), checkout.ErrInvalidState)
}

func TestInvalidActions(t *testing.T) {
	t.Parallel()

	f := newFlow(t, momoProps(), &fakeBackend{})
	assert.ErrorIs(t, f.Retry(context.Background()), checkout.ErrInvalidState)
	assert.ErrorIs(t, f.CancelPayment(context.Background()), checkout.ErrInvalidState)
}

func TestSubscribeReceivesViews(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		initiation: &billingapi.MoMoInitiation{TransactionID: "tx_1"},
		statuses:   []billingapi.MoMoStatus{status("success")},
	}
	f := newFlow(t, momoProps(), b, checkout.WithID("flow-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := f.Subscribe(ctx)

	first := <-sub.Receive(ctx)
	assert.Equal(t, "flow-1", first.Data.FlowID)
	assert.Equal(t, checkout.PhaseIdle, first.Data.Phase)

	_, _ = f.InputPhone(context.Background(), "0241234567")
	require.NoError(t, f.Submit(context.Background()))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-sub.Receive(ctx):
			require.True(t, ok)
			if msg.Data.Phase == checkout.PhaseSucceeded {
				assert.Equal(t, "Payment successful!", msg.Data.Notice.Message)
				return
			}
		case <-deadline:
			t.Fatal("no succeeded view received")
		}
	}
}

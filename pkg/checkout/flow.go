package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/paydesk/console/pkg/async"
	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/broadcast"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/money"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
	"github.com/paydesk/console/pkg/statemachine"
	"github.com/paydesk/console/pkg/validator"
)

var (
	ErrClosed       = errors.New("checkout: flow is closed")
	ErrBusy         = errors.New("checkout: a submission is already in progress")
	ErrInvalidState = errors.New("checkout: action not allowed in the current phase")
)

// Option configures a Flow.
type Option func(*Flow)

// WithConfig sets the flow configuration. Zero poll interval keeps the default.
func WithConfig(cfg Config) Option {
	return func(f *Flow) {
		if cfg.PollInterval <= 0 {
			cfg.PollInterval = async.DefaultPollInterval
		}
		f.cfg = cfg
	}
}

func WithNavigator(n Navigator) Option {
	return func(f *Flow) { f.nav = n }
}

func WithNotifier(n Notifier) Option {
	return func(f *Flow) { f.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithID sets the flow id instead of a generated one.
func WithID(id string) Option {
	return func(f *Flow) { f.id = id }
}

// Flow is one checkout instance: it owns the method choice, the phone input,
// at most one in-flight submission and at most one status poll.
// All methods are safe for concurrent use.
type Flow struct {
	id       string
	props    Props
	cfg      Config
	tag      language.Tag
	backend  Backend
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger
	views    *broadcast.MemoryBroadcaster[View]

	// lifetime of the flow; polls run under it, not under request contexts
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	machine     *machine
	selector    *paymethod.Selector
	phone       *phone.Field
	fieldErr    string
	txRef       string
	reason      string
	redirectURL string
	notice      *Notification
	poller      *async.Poller
	pollGen     uint64
	version     uint64
	effects     []func()
	closed      bool

	successOnce sync.Once
}

// New creates a flow for props, calling the billing API through backend.
func New(props Props, backend Backend, opts ...Option) (*Flow, error) {
	if backend == nil {
		return nil, errors.New("checkout: nil backend")
	}
	if err := props.validate(); err != nil {
		return nil, err
	}

	f := &Flow{
		id:       uuid.NewString(),
		props:    props,
		cfg:      DefaultConfig(),
		backend:  backend,
		notifier: NotifierFunc(func(context.Context, Notification) {}),
		logger:   logger.Discard(),
		views:    broadcast.NewMemoryBroadcaster[View](4, broadcast.WithReplay()),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.tag = f.cfg.Language()
	f.logger = f.logger.With(
		logger.Component("checkout"),
		logger.FlowID(f.id),
		logger.PlanID(props.Plan.ID),
		logger.CustomerID(props.CustomerID),
	)
	f.ctx, f.cancel = context.WithCancel(context.Background())

	country := props.Country
	if country.Code == "" {
		country = f.cfg.Country()
	}
	f.phone = phone.NewField(country)
	f.machine = newMachine(f.startPolling, f.stopPolling, f.resetTransaction, f.recordFailure)
	f.selector = paymethod.NewSelector(props.Method, props.Capabilities, func(paymethod.Method) {
		f.fieldErr = ""
	})

	f.mu.Lock()
	f.publishLocked()
	f.mu.Unlock()
	return f, nil
}

// ID returns the flow id.
func (f *Flow) ID() string { return f.id }

// Props returns the props the flow was created with.
func (f *Flow) Props() Props { return f.props }

// Phase returns the current phase.
func (f *Flow) Phase() Phase { return f.machine.Current() }

// TransactionRef returns the held mobile-money reference, if any.
func (f *Flow) TransactionRef() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txRef
}

// View returns the current render model.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// Subscribe streams views, starting with the current one, until ctx ends or
// the flow is closed.
func (f *Flow) Subscribe(ctx context.Context) broadcast.Subscriber[View] {
	return f.views.Subscribe(ctx)
}

// SelectMethod switches the active payment method. Only allowed on the form.
func (f *Flow) SelectMethod(ctx context.Context, m paymethod.Method) error {
	return f.update(ctx, func() (bool, error) {
		if !f.machine.Is(PhaseIdle) {
			return false, ErrInvalidState
		}
		if err := f.selector.Choose(m); err != nil {
			return false, err
		}
		return true, nil
	})
}

// SetCountry switches the phone country, clearing the entered number.
func (f *Flow) SetCountry(ctx context.Context, code string) error {
	c, ok := phone.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", phone.ErrUnknownCountry, code)
	}
	return f.update(ctx, func() (bool, error) {
		if !f.machine.Is(PhaseIdle) {
			return false, ErrInvalidState
		}
		if !f.phone.SetCountry(c) {
			return false, nil
		}
		f.fieldErr = ""
		return true, nil
	})
}

// InputPhone applies raw input to the phone field and returns the display value.
func (f *Flow) InputPhone(ctx context.Context, raw string) (string, error) {
	var display string
	err := f.update(ctx, func() (bool, error) {
		if !f.machine.Is(PhaseIdle) {
			return false, ErrInvalidState
		}
		before := f.phone.Display()
		display = f.phone.Input(raw)
		changed := display != before || f.fieldErr != ""
		f.fieldErr = ""
		return changed, nil
	})
	return display, err
}

// Submit triggers the primary action of the active method: a hosted
// checkout redirect or a mobile-money payment request. Validation failures
// return validator errors without calling the billing API.
func (f *Flow) Submit(ctx context.Context) error {
	var method paymethod.Method
	err := f.update(ctx, func() (bool, error) {
		if f.machine.Is(PhaseSubmitting) {
			return false, ErrBusy
		}
		if !f.machine.Is(PhaseIdle) {
			return false, ErrInvalidState
		}
		sel := f.selector.Sync()
		if sel.Err != nil {
			return false, sel.Err
		}
		method = sel.Method
		if method.NeedsPhone() {
			if err := f.phone.Validate(true); err != nil {
				f.fieldErr = firstMessage(err)
				return true, err
			}
		}
		f.notice = nil
		return true, f.fire(ctx, evSubmit, nil)
	})
	if err != nil {
		return err
	}

	switch method {
	case paymethod.Stripe, paymethod.Paystack:
		return f.submitRedirect(ctx, method)
	case paymethod.MoMo:
		return f.submitMoMo(ctx)
	case paymethod.None:
	}
	return paymethod.ErrNoMethods
}

func (f *Flow) submitRedirect(ctx context.Context, method paymethod.Method) error {
	session, err := f.backend.CreateSubscription(ctx, billingapi.CreateSubscriptionRequest{
		CustomerID: f.props.CustomerID,
		PlanID:     f.props.Plan.ID,
		SuccessURL: f.props.SuccessURL,
		CancelURL:  f.props.CancelURL,
	})

	uerr := f.update(ctx, func() (bool, error) {
		if err != nil {
			f.logger.ErrorContext(ctx, "create subscription failed", logger.PaymentMethod(method), logger.Error(err))
			f.notifyLocked(ctx, LevelError, msgCreateFailed)
			return true, f.fire(ctx, evRejected, nil)
		}
		f.redirectURL = session.CheckoutURL
		f.logger.InfoContext(ctx, "redirecting to hosted checkout", logger.PaymentMethod(method))
		return true, f.fire(ctx, evRedirect, nil)
	})
	if err != nil {
		return errors.Join(err, uerr)
	}
	if uerr != nil {
		return uerr
	}

	if f.nav == nil {
		return nil
	}
	if nerr := f.nav.Navigate(ctx, session.CheckoutURL); nerr != nil {
		return errors.Join(nerr, f.update(ctx, func() (bool, error) {
			f.redirectURL = ""
			f.notifyLocked(ctx, LevelError, msgCreateFailed)
			return true, f.fire(ctx, evRejected, nil)
		}))
	}
	return nil
}

func (f *Flow) submitMoMo(ctx context.Context) error {
	f.mu.Lock()
	req := billingapi.MoMoInitiateRequest{
		CustomerID:  f.props.CustomerID,
		PlanID:      f.props.Plan.ID,
		PhoneNumber: f.phone.Normalized(),
		Currency:    f.props.Plan.Currency,
		CountryCode: f.phone.Country().Code,
	}
	f.mu.Unlock()

	resp, err := f.backend.InitiateMoMo(ctx, req)
	if err == nil && (resp == nil || resp.Reference() == "") {
		err = billingapi.ErrNoReference
	}

	uerr := f.update(ctx, func() (bool, error) {
		if err != nil {
			f.logger.ErrorContext(ctx, "mobile money initiation failed", logger.Error(err))
			f.notifyLocked(ctx, LevelError, billingapi.Message(err, msgInitiateFailed))
			return true, f.fire(ctx, evRejected, nil)
		}
		f.txRef = resp.Reference()
		f.logger.InfoContext(ctx, "mobile money payment requested", logger.TransactionRef(f.txRef))
		f.notifyLocked(ctx, LevelInfo, msgRequestSent)
		return true, f.fire(ctx, evAccepted, nil)
	})
	return errors.Join(err, uerr)
}

// CancelPayment abandons a pending or unresolved transaction and returns to
// the form. The provider prompt on the customer's phone is not withdrawn.
func (f *Flow) CancelPayment(ctx context.Context) error {
	return f.update(ctx, func() (bool, error) {
		if !f.machine.Is(PhasePending, PhaseUnresolved) {
			return false, ErrInvalidState
		}
		f.logger.InfoContext(ctx, "payment abandoned", logger.TransactionRef(f.txRef))
		return true, f.fire(ctx, evCancel, nil)
	})
}

// Retry clears a failed or unresolved transaction and shows the form again.
// The user submits again explicitly.
func (f *Flow) Retry(ctx context.Context) error {
	return f.update(ctx, func() (bool, error) {
		if !f.machine.Is(PhaseFailed, PhaseUnresolved) {
			return false, ErrInvalidState
		}
		return true, f.fire(ctx, evRetry, nil)
	})
}

// Abort invokes the host cancel callback and closes the flow.
func (f *Flow) Abort(ctx context.Context) error {
	if f.props.OnCancel == nil {
		return ErrInvalidState
	}
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrClosed
	}
	f.Close()
	f.props.OnCancel(ctx)
	return nil
}

// Close stops polling and ends all view subscriptions. Idempotent.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	if f.poller != nil {
		f.poller.Stop()
		f.poller = nil
	}
	f.mu.Unlock()

	f.cancel()
	_ = f.views.Close()
}

// Closed reports whether Close has been called.
func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// update runs fn under the flow lock, publishes a new view when fn reports
// a change, then runs queued side effects outside the lock.
func (f *Flow) update(ctx context.Context, fn func() (bool, error)) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	changed, err := fn()
	if changed {
		f.publishLocked()
	}
	effects := f.effects
	f.effects = nil
	f.mu.Unlock()

	for _, effect := range effects {
		effect()
	}
	return err
}

// fire translates state machine errors. Must be called with lock held.
func (f *Flow) fire(ctx context.Context, ev event, data any) error {
	from := f.machine.Current()
	err := f.machine.Fire(ctx, ev, data)
	switch {
	case err == nil:
		f.logger.DebugContext(ctx, "checkout transition",
			logger.Event(string(ev)),
			slog.String("from", from.String()),
			slog.String("to", f.machine.Current().String()),
		)
		return nil
	case errors.Is(err, statemachine.ErrNoTransition), errors.Is(err, statemachine.ErrTransitionRejected):
		return fmt.Errorf("%w: %s in %s", ErrInvalidState, ev, from)
	}
	return err
}

// Must be called with lock held.
func (f *Flow) publishLocked() {
	f.version++
	_ = f.views.Broadcast(f.ctx, broadcast.Message[View]{Data: f.viewLocked()})
}

// Must be called with lock held.
func (f *Flow) notifyLocked(ctx context.Context, level Level, msg string) {
	n := Notification{Level: level, Message: msg}
	f.notice = &n
	f.effects = append(f.effects, func() { f.notifier.Notify(ctx, n) })
}

// Must be called with lock held.
func (f *Flow) viewLocked() View {
	phase := f.machine.Current()
	busy := phase == PhaseSubmitting
	sel := f.selector.Selection()

	v := View{
		FlowID:      f.id,
		Version:     f.version,
		Phase:       phase,
		Plan:        summarize(f.props.Plan, f.formatPrice),
		Methods:     MethodsView{Active: sel.Method},
		Panel:       panelFor(phase, f.txRef, f.reason),
		CanCancel:   f.props.OnCancel != nil,
		RedirectURL: f.redirectURL,
		Notice:      f.notice,
		Security:    SecurityNotice,
		Action: ActionView{
			Label:    actionLabel(sel.Method, busy),
			Busy:     busy,
			Disabled: busy || sel.Err != nil || phase != PhaseIdle,
		},
	}
	if sel.Err != nil {
		v.Methods.Error = msgNoMethods
	}
	for _, m := range sel.Choices {
		v.Methods.Choices = append(v.Methods.Choices, MethodChoice{
			Method:      m,
			Title:       m.Title(),
			Description: m.Description(),
			Selected:    m == sel.Method,
		})
	}
	if sel.Method.NeedsPhone() {
		c := f.phone.Country()
		v.Phone = &PhoneView{
			Country:     c,
			Countries:   phone.Countries(),
			Value:       f.phone.Display(),
			Placeholder: c.Placeholder(),
			Hint:        c.Hint(),
			Error:       f.fieldErr,
		}
	}
	return v
}

func (f *Flow) formatPrice(m money.Money) string {
	s, err := m.Format(f.tag)
	if err != nil {
		return m.String()
	}
	return s
}

// startPolling runs on entering PhasePending, with the lock held.
func (f *Flow) startPolling(ctx context.Context, _, _ Phase, _ event, _ any) {
	f.pollGen++
	gen, ref := f.pollGen, f.txRef
	log := f.logger.With(logger.TransactionRef(ref))

	p, err := async.Poll(f.ctx, f.tick(gen, ref, log),
		async.WithInterval(f.cfg.PollInterval),
		async.WithMaxAttempts(f.cfg.MaxPollAttempts),
		async.WithMaxErrors(f.cfg.MaxPollErrors),
		async.WithErrorHandler(func(attempt int, err error) {
			log.WarnContext(f.ctx, "status poll failed", logger.Attempt(attempt), logger.Error(err))
		}),
		async.WithOnDone(func(err error) { f.pollFinished(gen, err, log) }),
	)
	if err != nil {
		log.ErrorContext(ctx, "status polling not started", logger.Error(err))
		return
	}
	f.poller = p
}

// stopPolling runs on leaving PhasePending, with the lock held.
func (f *Flow) stopPolling(context.Context, Phase, Phase, event, any) {
	if f.poller != nil {
		f.poller.Stop()
		f.poller = nil
	}
}

// resetTransaction runs on entering PhaseIdle, with the lock held.
func (f *Flow) resetTransaction(context.Context, Phase, Phase, event, any) {
	f.txRef = ""
	f.reason = ""
	f.redirectURL = ""
}

// recordFailure stores the server-supplied reason before entering PhaseFailed.
func (f *Flow) recordFailure(_ context.Context, _, _ Phase, _ event, data any) error {
	f.reason, _ = data.(string)
	return nil
}

// tick polls the status of ref once. Results for a transaction the flow no
// longer holds are dropped.
func (f *Flow) tick(gen uint64, ref string, log *slog.Logger) async.TickFunc {
	return func(ctx context.Context, attempt int) (bool, error) {
		st, err := f.backend.MoMoStatus(ctx, ref)
		if err != nil {
			return false, err
		}

		done := true
		_ = f.update(ctx, func() (bool, error) {
			if gen != f.pollGen || !f.machine.Is(PhasePending) {
				return false, nil
			}
			state := st.State()
			log.DebugContext(ctx, "status polled", logger.Attempt(attempt), logger.Status(st.Status))

			switch state {
			case billingapi.StatePending:
				done = false
				return false, nil
			case billingapi.StateSucceeded:
				log.InfoContext(ctx, "mobile money payment succeeded", logger.Attempt(attempt))
				f.notifyLocked(ctx, LevelSuccess, msgPaymentSuccess)
				f.scheduleSuccess(ref)
				return true, f.fire(ctx, evSucceed, nil)
			case billingapi.StateFailed:
				log.InfoContext(ctx, "mobile money payment failed", slog.String("reason", st.Reason()))
				return true, f.fire(ctx, evFail, st.Reason())
			case billingapi.StateUnknown:
			}
			log.WarnContext(ctx, "unrecognized payment status", logger.Status(st.Status))
			return true, f.fire(ctx, evUnresolve, nil)
		})
		return done, nil
	}
}

// pollFinished handles a poll that ended on its own budget.
func (f *Flow) pollFinished(gen uint64, err error, log *slog.Logger) {
	if err == nil || async.Stopped(err) {
		return
	}
	_ = f.update(f.ctx, func() (bool, error) {
		if gen != f.pollGen || !f.machine.Is(PhasePending) {
			return false, nil
		}
		log.WarnContext(f.ctx, "status polling gave up", logger.Error(err))
		return true, f.fire(f.ctx, evUnresolve, nil)
	})
}

// Must be called with lock held.
func (f *Flow) scheduleSuccess(ref string) {
	if f.props.OnSuccess == nil {
		return
	}
	r := Result{
		FlowID:         f.id,
		PlanID:         f.props.Plan.ID,
		CustomerID:     f.props.CustomerID,
		Method:         f.selector.Current(),
		TransactionRef: ref,
	}
	f.effects = append(f.effects, func() {
		f.successOnce.Do(func() { f.props.OnSuccess(context.WithoutCancel(f.ctx), r) })
	})
}

func firstMessage(err error) string {
	if msg := validator.ExtractValidationErrors(err).First(phone.FieldName); msg != "" {
		return msg
	}
	return err.Error()
}

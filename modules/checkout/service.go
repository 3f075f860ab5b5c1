package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/binder"
	"github.com/paydesk/console/pkg/catalog"
	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/environment"
	"github.com/paydesk/console/pkg/handler"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
	"github.com/paydesk/console/pkg/validator"
)

// PlanSource resolves purchasable plans. *catalog.Catalog implements it.
type PlanSource interface {
	PurchasablePlan(ctx context.Context, id int64) (billingapi.Plan, error)
}

// Service serves checkout flows over HTTP.
type Service struct {
	cfg          Config
	flowCfg      checkout.Config
	plans        PlanSource
	backend      checkout.Backend
	capabilities CapabilitySource
	flows        *Registry
	limiter      *submitLimiter
	views        *Views
	errorHandler handler.ErrorHandler[handler.Context]
	onSuccess    func(ctx context.Context, r checkout.Result)
	basePath     string
	logger       *slog.Logger
}

type Option func(*Service)

func WithFlowConfig(cfg checkout.Config) Option {
	return func(s *Service) { s.flowCfg = cfg }
}

// WithCapabilitySource enables capability discovery when
// Config.DetectCapabilities is set.
func WithCapabilitySource(src CapabilitySource) Option {
	return func(s *Service) { s.capabilities = src }
}

func WithViews(v *Views) Option {
	return func(s *Service) { s.views = v.withDefaults() }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(s *Service) { s.errorHandler = h }
}

// WithOnSuccess is called once per flow whose mobile-money payment succeeded.
func WithOnSuccess(fn func(ctx context.Context, r checkout.Result)) Option {
	return func(s *Service) { s.onSuccess = fn }
}

// WithBasePath sets the path the service is mounted at. Defaults to "/checkout".
func WithBasePath(p string) Option {
	return func(s *Service) { s.basePath = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates the checkout service.
func NewService(cfg Config, plans PlanSource, backend checkout.Backend, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		flowCfg:  checkout.DefaultConfig(),
		plans:    plans,
		backend:  backend,
		views:    DefaultViews(),
		basePath: "/checkout",
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("checkout_http"))
	s.flows = NewRegistry(cfg.MaxFlows, cfg.FlowTTL, s.logger)
	s.limiter = newSubmitLimiter(cfg.submitLimit(), cfg.SubmitBurst)
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.logger, handler.ErrorHandlerConfig{
			ErrorPage:  s.views.ErrorPage,
			ErrorToast: s.views.ErrorToast,
		})
	}
	return s
}

// Flows exposes the flow registry.
func (s *Service) Flows() *Registry { return s.flows }

// Run purges expired flows until ctx is done, then closes all flows.
func (s *Service) Run(ctx context.Context) {
	s.flows.Run(ctx, time.Minute)
	s.flows.Close()
}

// Close ends every flow and its event streams.
func (s *Service) Close(context.Context) error {
	s.flows.Close()
	return nil
}

type StartRequest struct {
	PlanID     int64            `path:"planID"`
	CustomerID int64            `query:"customer_id"`
	Method     paymethod.Method `query:"method"`
	Country    string           `query:"country"`
}

type FlowRequest struct {
	FlowID string `path:"flowID"`
}

type MethodRequest struct {
	FlowID string           `path:"flowID" json:"-"`
	Method paymethod.Method `form:"method" json:"method"`
}

type CountryRequest struct {
	FlowID  string `path:"flowID" json:"-"`
	Country string `form:"country" json:"country"`
}

type PhoneRequest struct {
	FlowID string `path:"flowID" json:"-"`
	Phone  string `form:"phone" json:"phone"`
}

// Handle returns the service routes, relative to the base path.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	path := binder.Path(chi.URLParam)

	r.Get("/{planID}", handler.Wrap(s.start,
		handler.WithBinders[handler.Context, StartRequest](path, binder.Query()),
		handler.WithErrorHandler[handler.Context, StartRequest](s.errorHandler),
	))

	r.Route("/flows/{flowID}", func(r chi.Router) {
		r.Get("/", handler.Wrap(s.show,
			handler.WithBinders[handler.Context, FlowRequest](path),
			handler.WithErrorHandler[handler.Context, FlowRequest](s.errorHandler),
		))
		r.Get("/events", handler.Wrap(s.events,
			handler.WithBinders[handler.Context, FlowRequest](path),
			handler.WithErrorHandler[handler.Context, FlowRequest](s.errorHandler),
		))
		r.Post("/method", handler.Wrap(s.selectMethod,
			handler.WithBinders[handler.Context, MethodRequest](path, binder.Form(), binder.JSON(), binder.Signals()),
			handler.WithErrorHandler[handler.Context, MethodRequest](s.errorHandler),
		))
		r.Post("/country", handler.Wrap(s.setCountry,
			handler.WithBinders[handler.Context, CountryRequest](path, binder.Form(), binder.JSON(), binder.Signals()),
			handler.WithErrorHandler[handler.Context, CountryRequest](s.errorHandler),
		))
		r.Post("/phone", handler.Wrap(s.inputPhone,
			handler.WithBinders[handler.Context, PhoneRequest](path, binder.Form(), binder.JSON(), binder.Signals()),
			handler.WithErrorHandler[handler.Context, PhoneRequest](s.errorHandler),
		))
		r.Post("/submit", handler.Wrap(s.submit,
			handler.WithBinders[handler.Context, PhoneRequest](path, binder.Form(), binder.JSON(), binder.Signals()),
			handler.WithErrorHandler[handler.Context, PhoneRequest](s.errorHandler),
		))
		for name, action := range map[string]handler.HandlerFunc[handler.Context, FlowRequest]{
			"/cancel": s.cancelPayment,
			"/retry":  s.retry,
			"/abort":  s.abort,
		} {
			r.Post(name, handler.Wrap(action,
				handler.WithBinders[handler.Context, FlowRequest](path),
				handler.WithErrorHandler[handler.Context, FlowRequest](s.errorHandler),
			))
		}
	})

	return r
}

func (s *Service) start(ctx handler.Context, req StartRequest) handler.Response {
	plan, err := s.plans.PurchasablePlan(ctx, req.PlanID)
	switch {
	case errors.Is(err, billingapi.ErrNotFound):
		return handler.Error(handler.ErrNotFound)
	case errors.Is(err, catalog.ErrInactivePlan):
		return handler.Error(handler.NewHTTPError(http.StatusUnprocessableEntity, "plan_not_purchasable"))
	case err != nil:
		s.logger.ErrorContext(ctx, "plan lookup failed", logger.PlanID(req.PlanID), logger.Error(err))
		return handler.Error(handler.ErrBadGateway)
	}

	caps, err := s.flowCfg.Capabilities()
	if err != nil {
		return handler.Error(err)
	}
	if s.cfg.DetectCapabilities && s.capabilities != nil {
		caps = detectCapabilities(ctx, s.capabilities, caps, s.logger)
	}

	country := s.flowCfg.Country()
	if req.Country != "" {
		c, ok := phone.Lookup(req.Country)
		if !ok {
			return handler.Error(handler.NewHTTPError(http.StatusUnprocessableEntity, "unsupported_country"))
		}
		country = c
	}

	origin := s.origin(ctx.Request())
	f, err := checkout.New(checkout.Props{
		Plan:         plan,
		CustomerID:   req.CustomerID,
		SuccessURL:   origin + "/success",
		CancelURL:    origin + "/checkout",
		Capabilities: caps,
		Method:       req.Method,
		Country:      country,
		OnSuccess:    s.succeeded,
		OnCancel: func(ctx context.Context) {
			s.logger.InfoContext(ctx, "checkout abandoned", logger.PlanID(plan.ID), logger.CustomerID(req.CustomerID))
		},
	}, s.backend,
		checkout.WithConfig(s.flowCfg),
		checkout.WithLogger(s.logger),
	)
	if err != nil {
		return handler.Error(err)
	}
	s.flows.Add(f)
	s.logger.InfoContext(ctx, "checkout started", logger.FlowID(f.ID()), logger.PlanID(plan.ID), logger.CustomerID(req.CustomerID))

	if handler.WantsJSON(ctx.Request()) {
		return handler.JSONStatus(http.StatusCreated, f.View())
	}
	return handler.Templ(s.views.Page(s.params(ctx, f.View())))
}

func (s *Service) succeeded(ctx context.Context, r checkout.Result) {
	s.logger.InfoContext(ctx, "checkout completed",
		logger.FlowID(r.FlowID),
		logger.PlanID(r.PlanID),
		logger.CustomerID(r.CustomerID),
		logger.TransactionRef(r.TransactionRef),
	)
	if s.onSuccess != nil {
		s.onSuccess(ctx, r)
	}
}

func (s *Service) show(ctx handler.Context, req FlowRequest) handler.Response {
	f, ok := s.flows.Get(req.FlowID)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	if handler.WantsJSON(ctx.Request()) {
		return handler.JSON(f.View())
	}
	p := s.params(ctx, f.View())
	return handler.TemplPartial(s.views.Checkout(p), s.views.Page(p), handler.WithTarget("#checkout"))
}

// events streams every view change of a flow until the client leaves, the
// flow is closed or the browser is handed to a hosted checkout.
func (s *Service) events(ctx handler.Context, req FlowRequest) handler.Response {
	f, ok := s.flows.Get(req.FlowID)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	return handler.SSE(func(stream handler.StreamContext) error {
		sub := f.Subscribe(stream)
		defer sub.Close()

		var shown *checkout.Notification
		for msg := range sub.Receive(stream) {
			v := msg.Data
			patches := []handler.TemplPatch{handler.Patch(s.views.Checkout(s.params(ctx, v)))}
			if v.Notice != nil && v.Notice != shown {
				patches = append(patches, handler.Patch(s.views.Toast(*v.Notice),
					handler.WithTarget("#toasts"), handler.WithPatchMode(handler.PatchPrepend)))
			}
			shown = v.Notice
			if err := stream.SendMultiple(patches...); err != nil {
				return err
			}
			if v.RedirectURL != "" {
				return stream.Redirect(v.RedirectURL)
			}
			// a watched flow does not expire
			s.flows.Get(req.FlowID)
		}
		return nil
	})
}

func (s *Service) selectMethod(ctx handler.Context, req MethodRequest) handler.Response {
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		return f.SelectMethod(ctx, req.Method)
	})
}

func (s *Service) setCountry(ctx handler.Context, req CountryRequest) handler.Response {
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		return f.SetCountry(ctx, req.Country)
	})
}

func (s *Service) inputPhone(ctx handler.Context, req PhoneRequest) handler.Response {
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		_, err := f.InputPhone(ctx, req.Phone)
		return err
	})
}

// submit applies the phone number posted with the form, if any, then
// triggers the primary action.
func (s *Service) submit(ctx handler.Context, req PhoneRequest) handler.Response {
	if !s.limiter.Allow(ctx.Request()) {
		s.logger.WarnContext(ctx, "checkout submission rate limited", logger.FlowID(req.FlowID))
		return handler.Error(handler.ErrTooManyRequests)
	}
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		if req.Phone != "" {
			if _, err := f.InputPhone(ctx, req.Phone); err != nil {
				return err
			}
		}
		return f.Submit(ctx)
	})
}

func (s *Service) cancelPayment(ctx handler.Context, req FlowRequest) handler.Response {
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		return f.CancelPayment(ctx)
	})
}

func (s *Service) retry(ctx handler.Context, req FlowRequest) handler.Response {
	return s.act(ctx, req.FlowID, func(f *checkout.Flow) error {
		return f.Retry(ctx)
	})
}

func (s *Service) abort(ctx handler.Context, req FlowRequest) handler.Response {
	f, ok := s.flows.Get(req.FlowID)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	if err := f.Abort(ctx); err != nil {
		return handler.Error(httpError(err))
	}
	s.flows.Remove(req.FlowID)
	return handler.Redirect(f.Props().CancelURL)
}

// act runs op on a flow and renders the outcome. Validation and billing
// errors are part of the view; state errors map to HTTP errors.
func (s *Service) act(ctx handler.Context, id string, op func(*checkout.Flow) error) handler.Response {
	f, ok := s.flows.Get(id)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	if err := op(f); err != nil {
		if herr := httpError(err); herr != nil {
			return handler.Error(herr)
		}
		s.logger.DebugContext(ctx, "checkout action rejected", logger.FlowID(id), logger.Error(err))
	}

	v := f.View()
	r := ctx.Request()
	switch {
	case v.RedirectURL != "" && v.Phase == checkout.PhaseRedirecting:
		return handler.Redirect(v.RedirectURL)
	case handler.WantsJSON(r):
		return handler.JSON(v)
	case handler.IsDataStar(r):
		return handler.Templ(s.views.Checkout(s.params(ctx, v)))
	}
	return handler.Redirect(s.basePath + "/flows/" + id)
}

// httpError maps flow errors that are not rendered in the view. It returns
// nil for errors the view already shows.
func httpError(err error) error {
	switch {
	case errors.Is(err, checkout.ErrClosed):
		return handler.ErrGone
	case errors.Is(err, checkout.ErrBusy), errors.Is(err, checkout.ErrInvalidState):
		return handler.ErrConflict
	case errors.Is(err, paymethod.ErrNotAvailable), errors.Is(err, phone.ErrUnknownCountry):
		return handler.ErrUnprocessableEntity
	case validator.IsValidationError(err), errors.Is(err, paymethod.ErrNoMethods):
		return nil
	}
	var apiErr *billingapi.APIError
	if errors.As(err, &apiErr) || isBillingFailure(err) {
		return nil
	}
	return err
}

func isBillingFailure(err error) bool {
	for _, target := range []error{
		billingapi.ErrPermanentFailure,
		billingapi.ErrTemporaryFailure,
		billingapi.ErrUnauthorized,
		billingapi.ErrInvalidResponse,
		billingapi.ErrCircuitOpen,
		billingapi.ErrTimeout,
		billingapi.ErrNoCheckoutURL,
		billingapi.ErrNoReference,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) params(ctx context.Context, v checkout.View) PageParams {
	return PageParams{
		View:     v,
		BasePath: s.basePath,
		TestMode: !environment.FromContext(ctx).Live(),
	}
}

func (s *Service) origin(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

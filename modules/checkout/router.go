package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paydesk/console/pkg/environment"
	"github.com/paydesk/console/pkg/requestid"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects what the router mounts. Nil entries are skipped.
type RouterOptions struct {
	Checkout Mountable
	// Health is served at /healthz.
	Health http.Handler
	// Env is attached to every request context. Empty means development.
	Env environment.Environment
}

// Router builds the service root: request ids, the environment, real client
// IPs and panic recovery around the mounted handlers.
//
//	svc := checkout.NewService(cfg, plans, client, checkout.WithLogger(log))
//	r := checkout.Router(checkout.RouterOptions{
//		Checkout: svc,
//		Health:   httpserver.HealthHandler(log, checks),
//	})
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(environment.Parse(string(opts.Env))))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if opts.Health != nil {
		r.Method(http.MethodGet, "/healthz", opts.Health)
	}
	if opts.Checkout != nil {
		r.Mount("/checkout", opts.Checkout.Handle())
	}
	return r
}

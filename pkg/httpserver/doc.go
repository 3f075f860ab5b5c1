// Package httpserver runs an http.Handler with graceful shutdown.
//
// Server listens on the configured address, logs through slog and stops
// when its context is cancelled or Shutdown is called. Hooks registered with
// WithOnShutdown run as soon as shutdown begins, which is where long-lived
// event streams are closed so that in-flight requests can drain.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithOnShutdown(registry.Shutdown),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// HealthHandler serves a JSON readiness probe over named checks.
package httpserver

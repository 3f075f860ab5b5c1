package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/paydesk/console/pkg/logger"
)

type config struct {
	addr              string
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	onShutdown        []func(context.Context) error
	startHooks        []func(addr string)
}

func defaultConfig() *config {
	return &config{
		addr:              ":8080",
		readHeaderTimeout: 5 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            logger.Discard(),
	}
}

// Server wraps http.Server with graceful shutdown and logging.
type Server struct {
	cfg  *config
	once sync.Once

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg}
}

// Run listens and serves handler until ctx is cancelled or Shutdown is
// called. Listen failures are wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		ReadTimeout:       s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	for _, fn := range s.cfg.onShutdown {
		srv.RegisterOnShutdown(func() {
			sctx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
			defer cancel()
			if err := fn(sctx); err != nil {
				s.cfg.logger.Error("shutdown hook failed", logger.Error(err))
			}
		})
	}
	s.srv, s.ln = srv, ln
	s.mu.Unlock()

	addr := ln.Addr().String()
	s.cfg.logger.Info("http server listening", slog.String("addr", addr))
	for _, h := range s.cfg.startHooks {
		h(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.Shutdown(context.Background())
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			runErr = errors.Join(runErr, err)
		}
	case runErr = <-errCh:
		if errors.Is(runErr, http.ErrServerClosed) {
			runErr = nil
		}
	}
	return runErr
}

// Addr returns the listening address once Run has started, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully. Safe for repeated calls; only the
// first performs the shutdown. Failures are wrapped with ErrShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		if err = srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
		}
		s.cfg.logger.Info("http server stopped", logger.Duration(time.Since(start)))
	})

	if err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}

// Command checkoutd serves the hosted checkout pages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paydesk/console/modules/checkout"
	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/catalog"
	flow "github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/config"
	"github.com/paydesk/console/pkg/environment"
	"github.com/paydesk/console/pkg/httpserver"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/redis"
	"github.com/paydesk/console/pkg/requestid"
)

type appConfig struct {
	Log      logger.Config
	Server   httpserver.Config
	Billing  billingapi.Config
	Flow     flow.Config
	Checkout checkout.Config
	Catalog  catalog.Config
	Redis    redis.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := errors.Join(
		config.Load(&cfg.Log),
		config.Load(&cfg.Server),
		config.Load(&cfg.Billing),
		config.Load(&cfg.Flow),
		config.Load(&cfg.Checkout),
		config.Load(&cfg.Catalog),
		config.Load(&cfg.Redis),
	); err != nil {
		return err
	}

	log, err := logger.FromConfig(cfg.Log, logger.WithContextExtractors(requestid.LoggerExtractor()))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	client, err := billingapi.New(cfg.Billing, billingapi.WithLogger(log))
	if err != nil {
		return err
	}

	checks := map[string]httpserver.Check{
		"billing_api": func(context.Context) error {
			if client.Breaker().State() == billingapi.CircuitOpen {
				return billingapi.ErrCircuitOpen
			}
			return nil
		},
	}

	var planCache catalog.Cache = catalog.NewMemoryCache(cfg.Catalog.Size, cfg.Catalog.TTL)
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		store := redis.NewStore(rdb, cfg.Redis.KeyPrefix)
		planCache = catalog.NewRedisCache(store, cfg.Catalog.TTL)
		checks["redis"] = store.Healthcheck
		log.InfoContext(ctx, "plan cache backed by redis")
	}
	plans := catalog.New(client, catalog.WithCache(planCache), catalog.WithLogger(log))

	svc := checkout.NewService(cfg.Checkout, plans, client,
		checkout.WithFlowConfig(cfg.Flow),
		checkout.WithCapabilitySource(client),
		checkout.WithLogger(log),
	)
	go svc.Run(ctx)

	router := checkout.Router(checkout.RouterOptions{
		Checkout: svc,
		Health:   httpserver.HealthHandler(log, checks),
		Env:      environment.Parse(cfg.Log.Env),
	})

	srv := httpserver.NewFromConfig(cfg.Server,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(svc.Close),
		httpserver.WithStartHook(func(addr string) {
			log.Info("checkout service listening", slog.String("addr", addr))
		}),
	)
	return srv.Run(ctx, router)
}

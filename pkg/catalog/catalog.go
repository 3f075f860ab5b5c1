package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/logger"
)

// ErrInactivePlan is returned for plans that exist but cannot be purchased.
var ErrInactivePlan = errors.New("catalog: plan is not active")

// Config is the env-driven cache configuration.
type Config struct {
	TTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	Size int           `env:"CATALOG_CACHE_SIZE" envDefault:"256"`
}

// Source reads plans from the billing API.
type Source interface {
	GetPlan(ctx context.Context, id int64) (*billingapi.Plan, error)
	ListPlans(ctx context.Context, f billingapi.PlanFilter) ([]billingapi.Plan, error)
}

// Cache stores plans by id.
type Cache interface {
	Get(ctx context.Context, id int64) (billingapi.Plan, bool, error)
	Set(ctx context.Context, p billingapi.Plan) error
	Delete(ctx context.Context, id int64) error
}

// Catalog serves plans through a cache. Cache failures degrade to direct
// reads and are only logged.
type Catalog struct {
	source Source
	cache  Cache
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCache sets the plan cache. Without it every lookup hits the source.
func WithCache(c Cache) Option {
	return func(cat *Catalog) { cat.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cat *Catalog) {
		if l != nil {
			cat.logger = l
		}
	}
}

// New creates a catalog reading from source.
func New(source Source, opts ...Option) *Catalog {
	c := &Catalog{source: source, logger: logger.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("catalog"))
	return c
}

// Plan returns plan id, from cache when possible.
func (c *Catalog) Plan(ctx context.Context, id int64) (billingapi.Plan, error) {
	if c.cache != nil {
		p, ok, err := c.cache.Get(ctx, id)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "plan cache read failed", logger.PlanID(id), logger.Error(err))
		case ok:
			return p, nil
		}
	}

	p, err := c.source.GetPlan(ctx, id)
	if err != nil {
		return billingapi.Plan{}, err
	}
	c.store(ctx, *p)
	return *p, nil
}

// PurchasablePlan is Plan that also rejects inactive plans.
func (c *Catalog) PurchasablePlan(ctx context.Context, id int64) (billingapi.Plan, error) {
	p, err := c.Plan(ctx, id)
	if err != nil {
		return p, err
	}
	if !p.IsActive {
		return p, ErrInactivePlan
	}
	return p, nil
}

// Plans lists plans from the source and refreshes the cache with them.
func (c *Catalog) Plans(ctx context.Context, f billingapi.PlanFilter) ([]billingapi.Plan, error) {
	plans, err := c.source.ListPlans(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		c.store(ctx, p)
	}
	return plans, nil
}

// Invalidate drops a cached plan.
func (c *Catalog) Invalidate(ctx context.Context, id int64) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, id)
}

func (c *Catalog) store(ctx context.Context, p billingapi.Plan) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, p); err != nil {
		c.logger.WarnContext(ctx, "plan cache write failed", logger.PlanID(p.ID), logger.Error(err))
	}
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/redis"
)

// RedisCache shares cached plans between service instances.
type RedisCache struct {
	store *redis.Store
	ttl   time.Duration
}

// NewRedisCache stores plans as JSON under "plan:{id}" for ttl.
func NewRedisCache(store *redis.Store, ttl time.Duration) *RedisCache {
	return &RedisCache{store: store, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, id int64) (billingapi.Plan, bool, error) {
	raw, err := r.store.Get(ctx, planKey(id))
	if errors.Is(err, redis.ErrNotFound) {
		return billingapi.Plan{}, false, nil
	}
	if err != nil {
		return billingapi.Plan{}, false, err
	}

	var p billingapi.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		// stale encoding; treat as a miss and let the next Set overwrite it
		return billingapi.Plan{}, false, nil
	}
	return p, true, nil
}

func (r *RedisCache) Set(ctx context.Context, p billingapi.Plan) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, planKey(p.ID), raw, r.ttl)
}

func (r *RedisCache) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, planKey(id))
}

func planKey(id int64) string {
	return "plan:" + strconv.FormatInt(id, 10)
}

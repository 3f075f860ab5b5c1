// Package redis connects to an optional Redis server and exposes a small
// namespaced byte store used for shared caches.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, cfg.KeyPrefix)
//	err = store.Set(ctx, "plan:7", raw, 5*time.Minute)
//
// Healthcheck adapts a client to the HTTP server's readiness probe.
package redis

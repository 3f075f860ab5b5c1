// Package catalog looks up subscription plans through a cache in front of
// the billing API. MemoryCache serves a single instance; RedisCache is used
// when REDIS_URL is configured.
package catalog

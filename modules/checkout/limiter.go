package checkout

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/paydesk/console/pkg/cache"
)

// submitLimiter keeps one token bucket per client IP. Idle buckets are
// dropped after an hour.
type submitLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.LRUCache[string, *rate.Limiter]
}

func newSubmitLimiter(limit rate.Limit, burst int) *submitLimiter {
	return &submitLimiter{
		limit:   limit,
		burst:   max(burst, 1),
		buckets: cache.NewLRUCache[string, *rate.Limiter](10_000, time.Hour),
	}
}

func (l *submitLimiter) Allow(r *http.Request) bool {
	if l.limit == rate.Inf {
		return true
	}
	key := clientIP(r)
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Put(key, b)
	}
	return b.Allow()
}

// clientIP is the host part of RemoteAddr; run behind middleware.RealIP
// when proxied.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

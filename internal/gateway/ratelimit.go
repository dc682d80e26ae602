package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorLimits tracks one token bucket per client IP. Buckets idle past
// the stale cutoff are dropped on sweep so the map does not grow with
// every address that ever hit the gateway.
type visitorLimits struct {
	mu      sync.Mutex
	buckets map[string]*visitorBucket
	rps     rate.Limit
	burst   int
	stale   time.Duration
}

type visitorBucket struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newVisitorLimits(rps, burst int, stale time.Duration) *visitorLimits {
	return &visitorLimits{
		buckets: make(map[string]*visitorBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		stale:   stale,
	}
}

func (v *visitorLimits) allow(ip string) bool {
	v.mu.Lock()
	b, ok := v.buckets[ip]
	if !ok {
		b = &visitorBucket{bucket: rate.NewLimiter(v.rps, v.burst)}
		v.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	v.mu.Unlock()

	return b.bucket.Allow()
}

// sweep drops buckets idle past the stale cutoff, returning how many
// remain.
func (v *visitorLimits) sweep(now time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, b := range v.buckets {
		if now.Sub(b.lastSeen) > v.stale {
			delete(v.buckets, ip)
		}
	}
	return len(v.buckets)
}

// RateLimiter returns a Gin middleware enforcing per-IP token-bucket
// rate limiting across all gateway routes. rps is the steady-state
// requests per second; burst is the maximum burst size. Evidence writes
// are ledger transactions, so the limiter sits in front of auth to keep
// a single client from flooding the ledger with submissions.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	limits := newVisitorLimits(rps, burst, 10*time.Minute)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limits.sweep(time.Now())
		}
	}()

	return func(c *gin.Context) {
		if !limits.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emissioncoresupport/evidence-ledger/pkg/ctxutil"
)

// idleLimiterTTL is how long an unused limiter is kept before cleanup drops it.
const idleLimiterTTL = 10 * time.Minute

// RateLimiter throttles requests per tenant, falling back to the client
// address for requests that have not been attributed to a tenant.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	stop     chan struct{}
	now      func() time.Time
}

type keyedLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter with background cleanup.
// Call Stop() on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*keyedLimiter),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Limit returns middleware allowing maxPerMinute requests per key, with a
// burst of the same size. Rejected requests get 429 and a Retry-After that
// says when the next token is due.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	every := rate.Every(time.Minute / time.Duration(maxPerMinute))
	limit := strconv.Itoa(maxPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := rl.limiter(limitKey(r), every, maxPerMinute)
			w.Header().Set("X-RateLimit-Limit", limit)

			now := rl.now()
			res := lim.ReserveN(now, 1)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	if tenantID, ok := ctxutil.TenantIDFromCtx(r.Context()); ok {
		return "tenant:" + tenantID
	}
	return "ip:" + r.RemoteAddr
}

func (rl *RateLimiter) limiter(key string, every rate.Limit, burst int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kl, ok := rl.limiters[key]
	if !ok {
		kl = &keyedLimiter{lim: rate.NewLimiter(every, burst)}
		rl.limiters[key] = kl
	}
	kl.lastSeen = rl.now()
	return kl.lim
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(rl.now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, kl := range rl.limiters {
		if now.Sub(kl.lastSeen) > idleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

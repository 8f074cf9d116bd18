package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/sheetnorm/internal/config"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
)

// CodeRateLimited matches core's UPL001 so clients see one code table.
const CodeRateLimited = "UPL001"

// clientIdle is how long a client may stay quiet before its bucket is
// forgotten.
const clientIdle = 10 * time.Minute

// RateLimiter gives every client address its own token bucket.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests a minute per client, with bursts
// of up to burst requests (perMinute when burst is not positive).
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// RateLimit returns the limiter middleware, or a pass-through when cfg
// disables it.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst).Handler
}

// Handler rejects a client that has spent its tokens with 429 and a
// Retry-After header.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r.RemoteAddr)
		wait, ok := rl.reserve(key)
		if !ok {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				"path", r.URL.Path,
				"client", key,
				"retry_after", wait,
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			denied(w, http.StatusTooManyRequests, "rate limit exceeded", CodeRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// reserve takes a token for key. When none is left it reports how long
// until one is.
func (rl *RateLimiter) reserve(key string) (time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return max(delay, time.Second), false
	}
	return 0, true
}

// sweep drops idle clients, at most once per clientIdle. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < clientIdle {
		return
	}
	for k, c := range rl.clients {
		if now.Sub(c.lastSeen) > clientIdle {
			delete(rl.clients, k)
		}
	}
	rl.lastSweep = now
}

// size reports how many client buckets are held.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientKey is the address without its port, so one host shares a bucket
// across connections.
func clientKey(remote string) string {
	if addr := remoteAddr(remote); addr.IsValid() {
		return addr.String()
	}
	return remote
}

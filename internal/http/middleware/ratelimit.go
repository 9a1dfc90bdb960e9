package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wolfman30/healthcare-assistant/internal/identity"
)

// RateLimiter is a token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter creates a limiter allowing rate requests/sec with the given
// burst per key. Idle buckets are evicted lazily.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow consumes a token for key. When the bucket is empty it returns false
// and how long until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.evictLocked(now)
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(float64(rl.burst), b.tokens+now.Sub(b.lastTime).Seconds()*rl.rate)
	b.lastTime = now

	if b.tokens < 1 {
		if rl.rate <= 0 {
			return false, time.Minute
		}
		wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
		return false, wait
	}
	b.tokens--
	return true, 0
}

// evictLocked drops buckets that have refilled completely; they are
// indistinguishable from new ones.
func (rl *RateLimiter) evictLocked(now time.Time) {
	if len(rl.buckets) < 1024 || rl.rate <= 0 {
		return
	}
	full := time.Duration(float64(rl.burst) / rl.rate * float64(time.Second))
	for key, b := range rl.buckets {
		if now.Sub(b.lastTime) > full {
			delete(rl.buckets, key)
		}
	}
}

// AllowUser consumes a token from the same bucket RateLimit uses for an
// authenticated request by userID.
func (rl *RateLimiter) AllowUser(userID string) (bool, time.Duration) {
	return rl.Allow(userKey(userID))
}

// RateLimit rejects requests over the configured rate with 429. Requests are
// keyed by the authenticated user when there is one, else by client IP, so a
// chat user cannot dodge the limit by reconnecting.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	return RateLimitWith(NewRateLimiter(rate, burst))
}

// RateLimitWith is RateLimit over an existing limiter, so several routes can
// draw from the same buckets.
func RateLimitWith(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, wait := limiter.Allow(clientKey(r))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := identity.UserIDFromContext(r.Context()); ok {
		return userKey(userID)
	}
	// chi's RealIP has already rewritten RemoteAddr when a proxy header is set.
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}

func userKey(userID string) string {
	return "user:" + userID
}

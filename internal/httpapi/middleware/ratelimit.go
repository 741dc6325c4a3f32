package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimitConfig configures a single fixed-window limiter: Requests per
// Window, keyed by KeyFunc (RateLimit defaults it to principalKey when unset
// by the caller). It is not a token bucket: a key's whole allowance becomes
// available again at once when its window ends.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(r *http.Request) string
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a simple in-memory fixed-window limiter, one entry per key.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	config  RateLimitConfig
}

// NewRateLimiter creates a limiter and starts its background janitor, which
// evicts expired entries once per minute for the lifetime of the process.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*rateLimitEntry),
		config:  config,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.entries {
			if entry.resetAt.Before(now) {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether a request for key is within the window, and the
// number of requests remaining in the current window.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists || entry.resetAt.Before(now) {
		rl.entries[key] = &rateLimitEntry{count: 1, resetAt: now.Add(rl.config.Window)}
		return true, rl.config.Requests - 1
	}

	if entry.count >= rl.config.Requests {
		return false, 0
	}

	entry.count++
	return true, rl.config.Requests - entry.count
}

func remoteAddrKey(r *http.Request) string {
	return r.RemoteAddr
}

// principalKey keys the limiter by authenticated user ID when present,
// falling back to the remote address for unauthenticated requests.
func principalKey(r *http.Request) string {
	if claims := GetClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID()
	}
	return remoteAddrKey(r)
}

// RateLimit wraps a handler with a limiter. 429 with Retry-After is returned
// once a key exhausts its window.
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.KeyFunc == nil {
		config.KeyFunc = principalKey
	}
	limiter := NewRateLimiter(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := config.KeyFunc(r)
			allowed, _ := limiter.Allow(key)
			if !allowed {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

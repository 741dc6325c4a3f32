package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinWindow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("k")
		if !allowed {
			t.Fatalf("request %d: expected allowed", i)
		}
	}

	allowed, _ := rl.Allow("k")
	if allowed {
		t.Error("expected 4th request to be rejected")
	}
}

func TestRateLimiterKeysIndependently(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute})

	if allowed, _ := rl.Allow("a"); !allowed {
		t.Fatal("expected key a allowed")
	}
	if allowed, _ := rl.Allow("b"); !allowed {
		t.Fatal("expected key b allowed independently of key a")
	}
	if allowed, _ := rl.Allow("a"); allowed {
		t.Error("expected key a exhausted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Requests: 1,
		Window:   time.Minute,
		KeyFunc:  func(r *http.Request) string { return "fixed" },
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/uploads", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/uploads", nil))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr2.Code)
	}
}

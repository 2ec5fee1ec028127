package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatalf("expected burst of 2 to pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatalf("expected other IP to have its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatalf("expected a token after one second")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	rl.Allow("2.2.2.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["1.1.1.1"]; ok {
		t.Fatalf("expected idle client to be evicted")
	}
	if len(rl.clients) != 1 {
		t.Fatalf("expected 1 tracked client, got %d", len(rl.clients))
	}
}

func TestRateLimiterSweepsOncePerTTL(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	start := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	now := start
	rl.now = func() time.Time { return now }
	tracked := func(ip string) bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		_, ok := rl.clients[ip]
		return ok
	}

	rl.Allow("1.1.1.1")
	now = start.Add(9 * time.Minute)
	rl.Allow("2.2.2.2")
	now = start.Add(limiterIdleTTL)
	rl.Allow("3.3.3.3")

	// 1.1.1.1 is idle past the TTL, but the last sweep was 5 minutes ago.
	now = start.Add(15 * time.Minute)
	rl.Allow("3.3.3.3")
	if !tracked("1.1.1.1") {
		t.Fatalf("expected no sweep within limiterIdleTTL of the last one")
	}

	now = start.Add(20 * time.Minute)
	rl.Allow("3.3.3.3")
	if tracked("1.1.1.1") || tracked("2.2.2.2") {
		t.Fatalf("expected idle clients to be evicted once the sweep interval passed")
	}
	if !tracked("3.3.3.3") {
		t.Fatalf("expected active client to stay tracked")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:1234"
	if got := clientIP(req); got != "192.168.1.9" {
		t.Fatalf("expected host from RemoteAddr, got %q", got)
	}
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected X-Real-Ip, got %q", got)
	}
}

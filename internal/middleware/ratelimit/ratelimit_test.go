package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiterAllow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients have their own budget")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("budget should reset after the window")
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 10)
	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")

	rl.cleanupStaleEntries()

	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/chart/daily", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/chart/daily", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	rl.now = func() time.Time { return clock }
	t.Cleanup(rl.Stop)
	return rl, &clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Error("fourth request should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other clients have their own budget")
	}

	*clock = clock.Add(time.Minute)
	if !rl.Allow("1.1.1.1") {
		t.Error("budget should reset after a minute")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 10)
	rl.Allow("1.1.1.1")
	*clock = clock.Add(5 * time.Minute)
	rl.Allow("2.2.2.2")
	*clock = clock.Add(6 * time.Minute)

	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Errorf("removed %d, want 1", n)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("active clients = %d", rl.ActiveClients())
	}
}

func TestMiddlewareRejects(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "ip" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Errorf("second status = %d, retry-after = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}

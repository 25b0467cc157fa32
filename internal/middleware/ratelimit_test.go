package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if ok, remaining := rl.Allow("1.2.3.4"); !ok || remaining != 1 {
		t.Fatalf("first request: ok=%v remaining=%d", ok, remaining)
	}
	if ok, remaining := rl.Allow("1.2.3.4"); !ok || remaining != 0 {
		t.Fatalf("second request: ok=%v remaining=%d", ok, remaining)
	}
	if ok, _ := rl.Allow("1.2.3.4"); ok {
		t.Fatal("third request must be limited")
	}
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Fatal("other clients must not be affected")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("request after the window must be allowed")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")

	now = now.Add(2 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.requests) != 0 {
		t.Fatalf("expected idle client to be dropped, got %d entries", len(rl.requests))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 15*time.Minute)
	defer rl.Stop()

	handler := RateLimit(rl, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send("10.0.0.1, 9.9.9.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("RateLimit-Policy"); got != "1;w=900" {
		t.Fatalf("unexpected policy header %q", got)
	}

	// Rotating the client-controlled entries does not reset the budget
	rec = send("1.1.1.1, 9.9.9.9")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "900" {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
	}

	rec = send("8.8.8.8")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  []string
		trustProxy bool
		want       string
	}{
		{"single hop", []string{"203.0.113.7"}, true, "203.0.113.7"},
		{"spoofed leading entries", []string{"6.6.6.6, 7.7.7.7, 203.0.113.7"}, true, "203.0.113.7"},
		{"repeated headers", []string{"6.6.6.6", "203.0.113.7"}, true, "203.0.113.7"},
		{"untrusted proxy", []string{"203.0.113.7"}, false, "192.0.2.1"},
		{"no header", nil, true, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}

			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

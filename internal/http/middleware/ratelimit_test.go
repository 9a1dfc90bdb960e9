package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolfman30/healthcare-assistant/internal/identity"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("ip:1.2.3.4"); !ok {
			t.Fatalf("expected burst request %d to be allowed", i+1)
		}
	}
	ok, wait := rl.Allow("ip:1.2.3.4")
	if ok {
		t.Fatalf("expected third request to be limited")
	}
	if wait != time.Second {
		t.Fatalf("expected one second until the next token, got %s", wait)
	}
	if ok, _ := rl.Allow("ip:5.6.7.8"); !ok {
		t.Fatalf("expected separate bucket per key")
	}

	now = now.Add(time.Second)
	if ok, _ := rl.Allow("ip:1.2.3.4"); !ok {
		t.Fatalf("expected bucket to refill")
	}
}

func TestRateLimitMiddlewareKeys(t *testing.T) {
	handler := RateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/sessions/s1/messages", nil)
		req.RemoteAddr = remote
		if userID != "" {
			req = req.WithContext(identity.WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("10.0.0.1:5000", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected first request ok, got %d", rec.Code)
	}
	rec := send("10.0.0.1:5001", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same ip on another port, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if rec := send("10.0.0.2:5000", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected other ip ok, got %d", rec.Code)
	}

	// users get their own bucket regardless of address
	if rec := send("10.0.0.1:5000", "user-1"); rec.Code != http.StatusOK {
		t.Fatalf("expected user bucket ok, got %d", rec.Code)
	}
	if rec := send("10.0.0.9:5000", "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected user limited across addresses, got %d", rec.Code)
	}
}

func TestRateLimitWithSharesBucketsWithAllowUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := RateLimitWith(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if ok, _ := rl.AllowUser("user-1"); !ok {
		t.Fatalf("expected first socket frame allowed")
	}
	req := httptest.NewRequest(http.MethodPost, "/api/chat/sessions", nil)
	req = req.WithContext(identity.WithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected request ok, got %d", rec.Code)
	}
	if ok, _ := rl.AllowUser("user-1"); ok {
		t.Fatalf("expected the REST request to have spent the shared bucket")
	}
}

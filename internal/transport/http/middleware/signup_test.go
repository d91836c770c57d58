package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignupThrottleAllowsBurstThenRejects(t *testing.T) {
	throttle := NewSignupThrottle(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle.buckets.now = func() time.Time { return now }

	handler := throttle.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("203.0.113.5:1000"); rec.Code != http.StatusCreated {
			t.Fatalf("expected request %d within burst to pass, got %d", i+1, rec.Code)
		}
	}
	rec := send("203.0.113.5:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected burst overflow to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	if rec := send("203.0.113.6:1000"); rec.Code != http.StatusCreated {
		t.Fatalf("expected other client to pass, got %d", rec.Code)
	}

	now = now.Add(time.Minute)
	if rec := send("203.0.113.5:1002"); rec.Code != http.StatusCreated {
		t.Fatalf("expected request after refill to pass, got %d", rec.Code)
	}
}

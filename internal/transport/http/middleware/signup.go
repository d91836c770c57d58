package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"milestonenotifier/internal/transport/http/api"
)

// SignupThrottle is a token bucket per client IP for the public registration
// endpoint: perMinute tokens refill each minute, burst may be spent at once.
type SignupThrottle struct {
	buckets *keyedLimiters
}

func NewSignupThrottle(perMinute, burst int) *SignupThrottle {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &SignupThrottle{
		buckets: newKeyedLimiters(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (t *SignupThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIPKey(r)
		if result := t.buckets.admit(key); !result.allowed {
			seconds := max(ceilSeconds(result.wait), 1)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			slog.Warn("signup throttled", "key", key, "retryAfterSec", seconds)
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many registrations, try again later", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

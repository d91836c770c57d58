package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"milestonenotifier/internal/transport/http/api"
)

type rateLimitKeyFunc func(r *http.Request) string

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiters keeps one token bucket per key. A bucket left idle for its
// full refill time is back at burst and is dropped on the next sweep.
type keyedLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

type admission struct {
	allowed   bool
	remaining int
	wait      time.Duration
	resetIn   time.Duration
}

func newKeyedLimiters(limit rate.Limit, burst int) *keyedLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &keyedLimiters{
		limit:   limit,
		burst:   burst,
		idleTTL: refillDuration(limit, float64(burst)),
		now:     time.Now,
		entries: map[string]*limiterEntry{},
	}
}

func (k *keyedLimiters) admit(key string) admission {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastSweep) >= k.idleTTL {
		for stale, entry := range k.entries {
			if now.Sub(entry.lastSeen) >= k.idleTTL {
				delete(k.entries, stale)
			}
		}
		k.lastSweep = now
	}

	entry, ok := k.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		tokens := entry.limiter.TokensAt(now)
		return admission{wait: delay, resetIn: refillDuration(k.limit, float64(k.burst)-tokens)}
	}
	tokens := entry.limiter.TokensAt(now)
	return admission{
		allowed:   true,
		remaining: int(math.Max(tokens, 0)),
		resetIn:   refillDuration(k.limit, float64(k.burst)-tokens),
	}
}

func (k *keyedLimiters) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func refillDuration(limit rate.Limit, tokens float64) time.Duration {
	if limit <= 0 || limit == rate.Inf || tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(limit) * float64(time.Second))
}

type rateLimiter struct {
	limit   int
	window  time.Duration
	keyFn   rateLimitKeyFunc
	buckets *keyedLimiters
}

// RateLimit allows limit requests per window for each caller, refilling
// continuously. Callers are keyed by user id when authenticated, else by IP.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	rl := newRateLimiter(limit, window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits on login (per IP and per
// submitted email) and on plugin and note mutations (per actor).
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	authByIP := newRateLimiter(authLimit, window, clientIPKey)
	authByEmail := newRateLimiter(authLimit, window, authEmailOrIPKey("email"))
	sensitiveByActor := newRateLimiter(mutationLimit, window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.enforce(w, r) || !authByEmail.enforce(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !sensitiveByActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRateLimiter(limit int, window time.Duration, keyFn rateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &rateLimiter{limit: limit, window: window, keyFn: keyFn}
	if limit > 0 {
		rl.buckets = newKeyedLimiters(rate.Every(window/time.Duration(limit)), limit)
	}
	return rl
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.buckets == nil {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	result := rl.buckets.admit(key)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(ceilSeconds(result.resetIn)))

	if !result.allowed {
		retryAfter := max(ceilSeconds(result.wait), 1)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		slog.Warn("rate limit exceeded",
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", rl.limit,
			"windowSec", int(rl.window.Seconds()),
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func authEmailOrIPKey(field string) rateLimitKeyFunc {
	return func(r *http.Request) string {
		email := extractJSONField(r, field)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if value := strings.TrimSpace(first); value != "" {
			return value
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// extractJSONField peeks at a JSON body without consuming it.
func extractJSONField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	path := "/" + strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	switch {
	case path == "/auth/login":
		return sensitiveScopeAuth
	case path == "/plugin/activate", path == "/plugin/deactivate":
		return sensitiveScopeActor
	case strings.HasPrefix(path, "/notes/") && (r.Method == http.MethodDelete || strings.HasSuffix(path, "/action")):
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}

package middleware

import (
	"log/slog"
	"net/http"

	"milestonenotifier/internal/transport/http/api"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused up front; other bodies are cut off by MaxBytesReader and
// surface as 413 from shared.DecodeJSON.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				slog.Warn("request body too large",
					"path", r.URL.Path,
					"contentLength", r.ContentLength,
					"limit", maxBytes,
				)
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", GetRequestID(r.Context()))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

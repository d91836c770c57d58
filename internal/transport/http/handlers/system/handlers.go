package systemhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/platform/metrics"
	"milestonenotifier/internal/transport/http/api"
	"milestonenotifier/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Store   Pinger
	Metrics *metrics.Collector
}

func NewHandler(store Pinger, collector *metrics.Collector) *Handler {
	return &Handler{Store: store, Metrics: collector}
}

// RegisterProbes mounts the unauthenticated liveness and readiness probes.
func (h *Handler) RegisterProbes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.Metrics == nil {
		return
	}
	r.With(middleware.RequirePermission(auth.PermMetricsRead)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
	})
}

package pluginhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/milestones"
	"milestonenotifier/internal/transport/http/api"
	"milestonenotifier/internal/transport/http/middleware"
)

type Lifecycle interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) (int64, error)
	Active() bool
}

type Handler struct {
	Plugin Lifecycle
}

func NewHandler(plugin Lifecycle) *Handler {
	return &Handler{Plugin: plugin}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/plugin", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPluginManage))
		r.Get("/status", h.handleStatus)
		r.Post("/activate", h.handleActivate)
		r.Post("/deactivate", h.handleDeactivate)
	})
}

type statusResponse struct {
	Active     bool     `json:"active"`
	Milestones []int    `json:"milestones"`
	Notes      []string `json:"notes"`
}

func (h *Handler) status() statusResponse {
	names := make([]string, 0, len(milestones.Kinds))
	for _, kind := range milestones.Kinds {
		names = append(names, string(kind))
	}
	return statusResponse{Active: h.Plugin.Active(), Milestones: milestones.Milestones, Notes: names}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.status(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Plugin.Activate(r.Context()); err != nil {
		if errors.Is(err, milestones.ErrMissingCapability) {
			api.Fail(w, http.StatusConflict, "missing_dependency", err.Error(), requestID)
			return
		}
		slog.Error("plugin activation failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "activation_failed", "failed to activate", requestID)
		return
	}
	api.Success(w, h.status(), requestID)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	removed, err := h.Plugin.Deactivate(r.Context())
	if err != nil {
		slog.Error("plugin deactivation failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "deactivation_failed", "failed to deactivate", requestID)
		return
	}
	api.Success(w, map[string]any{"active": false, "removed": removed}, requestID)
}

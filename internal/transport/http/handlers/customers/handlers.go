package customershandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/users"
	"milestonenotifier/internal/transport/http/api"
	"milestonenotifier/internal/transport/http/middleware"
	"milestonenotifier/internal/transport/http/shared"
)

type Registrar interface {
	Register(ctx context.Context, input users.RegisterInput) (users.User, error)
}

// HookFailureRecorder counts registrations whose hooks failed.
type HookFailureRecorder interface {
	HookFailed()
}

// Handler serves public sign-up. Accounts get Role, the role the milestone
// notifier counts.
type Handler struct {
	Users    Registrar
	Role     string
	Throttle func(http.Handler) http.Handler
	Metrics  HookFailureRecorder
}

func NewHandler(users Registrar, role string, throttle func(http.Handler) http.Handler) *Handler {
	if role == "" {
		role = auth.RoleCustomer
	}
	return &Handler{Users: users, Role: role, Throttle: throttle}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.Throttle != nil {
			r.Use(h.Throttle)
		}
		r.Post("/customers", h.handleRegister)
	})
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type customerResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Email("email", payload.Email)
	v.MinLength("password", payload.Password, 8, "must be at least 8 characters")
	v.MaxLength("displayName", payload.DisplayName, 120, "must be at most 120 characters")
	if v.Reject(w, requestID) {
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterInput{
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Password:    payload.Password,
		Role:        h.Role,
	})
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
		return
	case errors.Is(err, users.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
		return
	case errors.Is(err, users.ErrHookFailed):
		// The account exists; hook failures surface in the error log only.
		slog.Error("user_register hook failed", "userId", user.ID, "err", err, "requestId", requestID)
		if h.Metrics != nil {
			h.Metrics.HookFailed()
		}
	case err != nil:
		slog.Error("customer registration failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "registration_failed", "failed to register customer", requestID)
		return
	}

	api.Created(w, customerResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}, requestID)
}

package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/users"
	"milestonenotifier/internal/transport/http/api"
	"milestonenotifier/internal/transport/http/middleware"
	"milestonenotifier/internal/transport/http/shared"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (users.User, error)
}

type Handler struct {
	Users    Authenticator
	Secret   string
	TokenTTL time.Duration
}

func NewHandler(users Authenticator, secret string, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Handler{Users: users, Secret: secret, TokenTTL: ttl}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	user, err := h.Users.Authenticate(r.Context(), strings.TrimSpace(payload.Email), payload.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil && user.ID == "" {
		slog.Error("login failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}
	if err != nil {
		slog.Warn("login bookkeeping failed", "userId", user.ID, "err", err)
	}

	expiresAt := time.Now().Add(h.TokenTTL)
	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, loginResponse{Token: token, ExpiresAt: expiresAt.UTC(), UserID: user.ID, Role: user.Role}, requestID)
}

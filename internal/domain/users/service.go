package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/platform/hooks"
)

const minPasswordLength = 8

type Dispatcher interface {
	Dispatch(ctx context.Context, event hooks.Event) error
}

type Service struct {
	store StoreAPI
	Hooks Dispatcher
}

func NewService(store StoreAPI, dispatcher Dispatcher) *Service {
	return &Service{store: store, Hooks: dispatcher}
}

// Register creates the account and then fires user_register. The account is
// committed before the hook runs, so a hook failure is reported together with
// the created user.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return User{}, err
	}
	if len(input.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = auth.RoleCustomer
	}
	if !auth.KnownRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.CreateUser(ctx, User{
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		Role:         role,
		Status:       StatusActive,
	})
	if err != nil {
		return User{}, err
	}

	if s.Hooks != nil {
		// The account is committed; a client hanging up must not abort the hooks.
		event := hooks.Event{Hook: hooks.UserRegister, UserID: user.ID, Role: user.Role}
		if err := s.Hooks.Dispatch(context.WithoutCancel(ctx), event); err != nil {
			return user, fmt.Errorf("%w: %w", ErrHookFailed, err)
		}
	}
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, normalized)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if user.Status != StatusActive {
		return User{}, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		return user, fmt.Errorf("update last login: %w", err)
	}
	return user, nil
}

func (s *Service) CountByRole(ctx context.Context, role string) (int, error) {
	return s.store.CountByRole(ctx, role)
}

func (s *Service) EmailsByRole(ctx context.Context, role string) ([]string, error) {
	return s.store.EmailsByRole(ctx, role)
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return trimmed, nil
}

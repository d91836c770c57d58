package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/users"
)

// Seed creates the bootstrap administrator when one is configured. Seeding
// runs without hooks so the administrator never counts toward milestones.
func Seed(ctx context.Context, store users.StoreAPI, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	_, err := store.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return err
	}

	svc := users.NewService(store, nil)
	if _, err := svc.Register(ctx, users.RegisterInput{
		Email:       email,
		DisplayName: "Administrator",
		Password:    password,
		Role:        auth.RoleAdministrator,
	}); err != nil {
		return err
	}
	slog.Info("seeded administrator", "email", email)
	return nil
}

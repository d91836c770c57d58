package users

import "context"

type StoreAPI interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	CountByRole(ctx context.Context, role string) (int, error)
	EmailsByRole(ctx context.Context, role string) ([]string, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

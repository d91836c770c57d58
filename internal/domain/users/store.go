package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Status == "" {
		user.Status = StatusActive
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, display_name, password_hash, role, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, user.Email, user.DisplayName, user.PasswordHash, user.Role, user.Status).Scan(&user.ID, &user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, display_name, password_hash, role, status, created_at, last_login
    FROM users
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Email, &out.DisplayName, &out.PasswordHash, &out.Role, &out.Status, &out.CreatedAt, &out.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) CountByRole(ctx context.Context, role string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE role = $1", role).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) EmailsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT email FROM users WHERE role = $1 AND status = $2 ORDER BY email", role, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

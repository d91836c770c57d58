package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Status == "" {
		user.Status = StatusActive
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO users (id, email, display_name, password_hash, role, status, created_at)
    VALUES (?,?,?,?,?,?,?)
  `, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.Role, user.Status, user.CreatedAt.Format(sqliteTimeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (User, error) {
	var out User
	var createdAt string
	var lastLogin sql.NullString
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, email, display_name, password_hash, role, status, created_at, last_login
    FROM users
    WHERE email = ?
  `, email).Scan(&out.ID, &out.Email, &out.DisplayName, &out.PasswordHash, &out.Role, &out.Status, &createdAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	if out.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		ts, err := time.Parse(sqliteTimeLayout, lastLogin.String)
		if err != nil {
			return User{}, err
		}
		out.LastLogin = &ts
	}
	return out, nil
}

func (s *SQLiteStore) CountByRole(ctx context.Context, role string) (int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE role = ?", role).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLiteStore) EmailsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT email FROM users WHERE role = ? AND status = ? ORDER BY email", role, StatusActive)
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

func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", time.Now().UTC().Format(sqliteTimeLayout), userID)
	return err
}

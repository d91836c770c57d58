package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGRunStore struct {
	DB *pgxpool.Pool
}

func NewPGRunStore(db *pgxpool.Pool) *PGRunStore {
	return &PGRunStore{DB: db}
}

func (s *PGRunStore) Start(ctx context.Context, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s *PGRunStore) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRunStore struct {
	DB *sql.DB
}

func NewSQLiteRunStore(db *sql.DB) *SQLiteRunStore {
	return &SQLiteRunStore{DB: db}
}

func (s *SQLiteRunStore) Start(ctx context.Context, jobType string) (string, error) {
	runID := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO job_runs (id, job_type, status, started_at)
    VALUES (?,?,?,?)
  `, runID, jobType, StatusRunning, time.Now().UTC().Format(sqliteTimeLayout))
	if err != nil {
		return "", err
	}
	return runID, nil
}

func (s *SQLiteRunStore) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.ExecContext(ctx, `
    UPDATE job_runs
    SET status = ?, details_json = ?, completed_at = ?
    WHERE id = ?
  `, status, string(details), time.Now().UTC().Format(sqliteTimeLayout), runID)
	return err
}

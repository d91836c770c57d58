package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, payload any) error {
	payloadJSON, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, request_id, payload_json)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, actorID, action, entityType, entityID, requestID, payloadJSON)
	return err
}

type SQLiteService struct {
	DB *sql.DB
}

func NewSQLite(db *sql.DB) *SQLiteService {
	return &SQLiteService{DB: db}
}

func (s *SQLiteService) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, payload any) error {
	payloadJSON, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	var stored any
	if payloadJSON != nil {
		stored = string(payloadJSON)
	}
	_, err = s.DB.ExecContext(ctx, `
    INSERT INTO audit_events (id, actor_user_id, action, entity_type, entity_id, request_id, payload_json, created_at)
    VALUES (?,?,?,?,?,?,?,?)
  `, uuid.NewString(), actorID, action, entityType, entityID, requestID, stored,
		time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	return err
}

func marshalPayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}

package notes

import (
	"context"
	"log/slog"
)

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, payload any) error
}

type Service struct {
	store StoreAPI
	Audit AuditRecorder
}

func NewService(store StoreAPI, audit AuditRecorder) *Service {
	return &Service{store: store, Audit: audit}
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Note, error) {
	return s.store.List(ctx, filter, limit, offset)
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	return s.store.Count(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (Note, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) MarkActioned(ctx context.Context, actorID, requestID, id string) error {
	if err := s.store.MarkActioned(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "note.actioned", id, requestID, nil)
	return nil
}

func (s *Service) Delete(ctx context.Context, actorID, requestID, id string) error {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "note.deleted", id, requestID, map[string]string{"name": note.Name, "title": note.Title})
	return nil
}

func (s *Service) record(ctx context.Context, actorID, action, noteID, requestID string, payload any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, "note", noteID, requestID, payload); err != nil {
		slog.Warn("note audit record failed", "action", action, "noteId", noteID, "err", err)
	}
}

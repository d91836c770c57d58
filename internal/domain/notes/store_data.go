package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const noteColumns = "id, name, type, locale, title, content, content_data, marker, icon, source, status, actions, created_at, actioned_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) FindByName(ctx context.Context, name string) ([]Note, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+noteColumns+`
    FROM notes
    WHERE name = $1
    ORDER BY created_at ASC
  `, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		note, err := scanPGNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

func (s *Store) InsertUnique(ctx context.Context, note Note) (Note, bool, error) {
	if err := note.Validate(); err != nil {
		return Note{}, false, err
	}
	note = note.withDefaults(time.Now().UTC())
	actions, err := json.Marshal(note.Actions)
	if err != nil {
		return Note{}, false, err
	}

	err = s.DB.QueryRow(ctx, `
    INSERT INTO notes (name, type, locale, title, content, content_data, marker, icon, source, status, actions, created_at, actioned_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    ON CONFLICT (name, marker) WHERE marker <> '' DO NOTHING
    RETURNING id
  `, note.Name, note.Type, note.Locale, note.Title, note.Content, []byte(note.ContentData), note.Marker,
		note.Icon, note.Source, note.Status, actions, note.CreatedAt, note.ActionedAt).Scan(&note.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, findErr := s.findByMarker(ctx, note.Name, note.Marker)
		if findErr != nil {
			return Note{}, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return Note{}, false, err
	}
	return note, true, nil
}

func (s *Store) ReplaceByName(ctx context.Context, note Note) (Note, error) {
	if err := note.Validate(); err != nil {
		return Note{}, err
	}
	note = note.withDefaults(time.Now().UTC())
	actions, err := json.Marshal(note.Actions)
	if err != nil {
		return Note{}, err
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Note{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", note.Name); err != nil {
		return Note{}, fmt.Errorf("lock notes %s: %w", note.Name, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM notes WHERE name = $1", note.Name); err != nil {
		return Note{}, err
	}
	if err := tx.QueryRow(ctx, `
    INSERT INTO notes (name, type, locale, title, content, content_data, marker, icon, source, status, actions, created_at, actioned_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, note.Name, note.Type, note.Locale, note.Title, note.Content, []byte(note.ContentData), note.Marker,
		note.Icon, note.Source, note.Status, actions, note.CreatedAt, note.ActionedAt).Scan(&note.ID); err != nil {
		return Note{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *Store) DeleteByName(ctx context.Context, name string) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notes WHERE name = $1", name)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Get(ctx context.Context, id string) (Note, error) {
	if !validID(id) {
		return Note{}, ErrNoteNotFound
	}
	note, err := scanPGNote(s.DB.QueryRow(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNoteNotFound
	}
	return note, err
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Note, error) {
	query, args := buildFilterQuery("SELECT "+noteColumns, filter, dollarPlaceholder)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		note, err := scanPGNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildFilterQuery("SELECT COUNT(1)", filter, dollarPlaceholder)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkActioned(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNoteNotFound
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE notes SET status = $1, actioned_at = now()
    WHERE id = $2
  `, StatusActioned, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNoteNotFound
	}
	tag, err := s.DB.Exec(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) findByMarker(ctx context.Context, name, marker string) (Note, error) {
	note, err := scanPGNote(s.DB.QueryRow(ctx, "SELECT "+noteColumns+" FROM notes WHERE name = $1 AND marker = $2 LIMIT 1", name, marker))
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNoteNotFound
	}
	return note, err
}

func scanPGNote(row rowScanner) (Note, error) {
	var note Note
	var contentData, actions []byte
	if err := row.Scan(&note.ID, &note.Name, &note.Type, &note.Locale, &note.Title, &note.Content, &contentData,
		&note.Marker, &note.Icon, &note.Source, &note.Status, &actions, &note.CreatedAt, &note.ActionedAt); err != nil {
		return Note{}, err
	}
	note.ContentData = contentData
	if err := decodeActions(actions, &note); err != nil {
		return Note{}, err
	}
	return note, nil
}

func decodeActions(raw []byte, note *Note) error {
	note.Actions = []Action{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &note.Actions); err != nil {
		return fmt.Errorf("decode actions for note %s: %w", note.ID, err)
	}
	return nil
}

type placeholderFunc func(n int) string

func dollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func questionPlaceholder(int) string {
	return "?"
}

func buildFilterQuery(prefix string, filter Filter, placeholder placeholderFunc) (string, []any) {
	query := prefix + " FROM notes WHERE 1=1"
	var args []any
	if filter.Name != "" {
		args = append(args, filter.Name)
		query += " AND name = " + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND status = " + placeholder(len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += " AND source = " + placeholder(len(args))
	}
	return query, args
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

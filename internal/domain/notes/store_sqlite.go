package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore keeps notes in an embedded SQLite database.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

// SQLiteTimeLayout is fixed width so stored timestamps sort lexically.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteInsertNote = `
    INSERT INTO notes (id, name, type, locale, title, content, content_data, marker, icon, source, status, actions, created_at, actioned_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

func (s *SQLiteStore) FindByName(ctx context.Context, name string) ([]Note, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE name = ? ORDER BY created_at ASC", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLiteNotes(rows)
}

func (s *SQLiteStore) InsertUnique(ctx context.Context, note Note) (Note, bool, error) {
	if err := note.Validate(); err != nil {
		return Note{}, false, err
	}
	note = note.withDefaults(time.Now().UTC())
	note.ID = uuid.NewString()
	args, err := sqliteInsertArgs(note)
	if err != nil {
		return Note{}, false, err
	}

	res, err := s.DB.ExecContext(ctx, sqliteInsertNote+" ON CONFLICT (name, marker) WHERE marker <> '' DO NOTHING", args...)
	if err != nil {
		return Note{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Note{}, false, err
	}
	if affected == 0 {
		existing, err := scanSQLiteNote(s.DB.QueryRowContext(ctx,
			"SELECT "+noteColumns+" FROM notes WHERE name = ? AND marker = ? LIMIT 1", note.Name, note.Marker))
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, false, ErrNoteNotFound
		}
		return existing, false, err
	}
	return note, true, nil
}

func (s *SQLiteStore) ReplaceByName(ctx context.Context, note Note) (Note, error) {
	if err := note.Validate(); err != nil {
		return Note{}, err
	}
	note = note.withDefaults(time.Now().UTC())
	note.ID = uuid.NewString()
	args, err := sqliteInsertArgs(note)
	if err != nil {
		return Note{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Note{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE name = ?", note.Name); err != nil {
		return Note{}, err
	}
	if _, err := tx.ExecContext(ctx, sqliteInsertNote, args...); err != nil {
		return Note{}, err
	}
	if err := tx.Commit(); err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *SQLiteStore) DeleteByName(ctx context.Context, name string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM notes WHERE name = ?", name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Note, error) {
	note, err := scanSQLiteNote(s.DB.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNoteNotFound
	}
	return note, err
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit, offset int) ([]Note, error) {
	query, args := buildFilterQuery("SELECT "+noteColumns, filter, questionPlaceholder)
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLiteNotes(rows)
}

func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildFilterQuery("SELECT COUNT(1)", filter, questionPlaceholder)
	var total int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLiteStore) MarkActioned(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "UPDATE notes SET status = ?, actioned_at = ? WHERE id = ?",
		StatusActioned, time.Now().UTC().Format(SQLiteTimeLayout), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func sqliteInsertArgs(note Note) ([]any, error) {
	actions, err := json.Marshal(note.Actions)
	if err != nil {
		return nil, err
	}
	var actionedAt sql.NullString
	if note.ActionedAt != nil {
		actionedAt = sql.NullString{String: note.ActionedAt.UTC().Format(SQLiteTimeLayout), Valid: true}
	}
	return []any{
		note.ID, note.Name, note.Type, note.Locale, note.Title, note.Content, string(note.ContentData),
		note.Marker, note.Icon, note.Source, note.Status, string(actions), note.CreatedAt.UTC().Format(SQLiteTimeLayout),
		actionedAt,
	}, nil
}

func collectSQLiteNotes(rows *sql.Rows) ([]Note, error) {
	var out []Note
	for rows.Next() {
		note, err := scanSQLiteNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

func scanSQLiteNote(row rowScanner) (Note, error) {
	var note Note
	var contentData, actions, createdAt string
	var actionedAt sql.NullString
	if err := row.Scan(&note.ID, &note.Name, &note.Type, &note.Locale, &note.Title, &note.Content, &contentData,
		&note.Marker, &note.Icon, &note.Source, &note.Status, &actions, &createdAt, &actionedAt); err != nil {
		return Note{}, err
	}
	note.ContentData = json.RawMessage(contentData)
	if err := decodeActions([]byte(actions), &note); err != nil {
		return Note{}, err
	}
	parsed, err := time.Parse(SQLiteTimeLayout, createdAt)
	if err != nil {
		return Note{}, fmt.Errorf("parse created_at for note %s: %w", note.ID, err)
	}
	note.CreatedAt = parsed
	if actionedAt.Valid {
		ts, err := time.Parse(SQLiteTimeLayout, actionedAt.String)
		if err != nil {
			return Note{}, fmt.Errorf("parse actioned_at for note %s: %w", note.ID, err)
		}
		note.ActionedAt = &ts
	}
	return note, nil
}

// Package storage opens the backend named by DATABASE_URL and hands out the
// per-domain stores built on it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"milestonenotifier/internal/domain/audit"
	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/domain/users"
	"milestonenotifier/internal/platform/config"
	"milestonenotifier/internal/platform/db"
	"milestonenotifier/internal/platform/jobs"
	"milestonenotifier/internal/platform/sqlitedb"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	sqlitePrefix = "sqlite:"
)

type Stores struct {
	Backend string
	Notes   notes.StoreAPI
	Users   users.StoreAPI
	Runs    jobs.RunStore
	Audit   notes.AuditRecorder

	ping  func(ctx context.Context) error
	close func()
}

// Open connects to the configured database. Postgres schemas are migrated
// when RUN_MIGRATIONS is set; SQLite schemas are always created. The seed
// administrator is created when RUN_SEED is set.
func Open(ctx context.Context, cfg config.Config) (*Stores, error) {
	url := strings.TrimSpace(cfg.DatabaseURL)
	var (
		stores *Stores
		err    error
	)
	if path, ok := strings.CutPrefix(url, sqlitePrefix); ok {
		stores, err = openSQLite(ctx, path)
	} else {
		stores, err = openPostgres(ctx, url, cfg.RunMigrations)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, stores.Users, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			stores.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}
	slog.Info("storage ready", "backend", stores.Backend)
	return stores, nil
}

func openPostgres(ctx context.Context, url string, migrate bool) (*Stores, error) {
	pool, err := db.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if migrate {
		if err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	return NewPostgres(pool), nil
}

func openSQLite(ctx context.Context, path string) (*Stores, error) {
	conn, err := sqlitedb.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewSQLite(conn), nil
}

func NewPostgres(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Backend: BackendPostgres,
		Notes:   notes.NewStore(pool),
		Users:   users.NewStore(pool),
		Runs:    jobs.NewPGRunStore(pool),
		Audit:   audit.New(pool),
		ping:    pool.Ping,
		close:   pool.Close,
	}
}

func NewSQLite(conn *sql.DB) *Stores {
	return &Stores{
		Backend: BackendSQLite,
		Notes:   notes.NewSQLiteStore(conn),
		Users:   users.NewSQLiteStore(conn),
		Runs:    jobs.NewSQLiteRunStore(conn),
		Audit:   audit.NewSQLite(conn),
		ping:    conn.PingContext,
		close:   func() { _ = conn.Close() },
	}
}

func (s *Stores) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return fmt.Errorf("storage not open")
	}
	return s.ping(ctx)
}

func (s *Stores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

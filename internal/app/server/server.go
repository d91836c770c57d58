package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/milestones"
	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/domain/users"
	"milestonenotifier/internal/platform/config"
	"milestonenotifier/internal/platform/email"
	"milestonenotifier/internal/platform/hooks"
	"milestonenotifier/internal/platform/i18n"
	"milestonenotifier/internal/platform/jobs"
	"milestonenotifier/internal/platform/metrics"
	"milestonenotifier/internal/platform/storage"
	authhandler "milestonenotifier/internal/transport/http/handlers/auth"
	customershandler "milestonenotifier/internal/transport/http/handlers/customers"
	noteshandler "milestonenotifier/internal/transport/http/handlers/notes"
	pluginhandler "milestonenotifier/internal/transport/http/handlers/plugin"
	systemhandler "milestonenotifier/internal/transport/http/handlers/system"
	"milestonenotifier/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Stores   *storage.Stores
	Hooks    *hooks.Registry
	Users    *users.Service
	Notes    *notes.Service
	Notifier *milestones.Notifier
	Plugin   *milestones.Plugin
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Router   http.Handler

	stopJobs context.CancelFunc
}

// New opens storage, wires the notifier to the registration hook and builds
// the router. With PLUGIN_ENABLED a failed activation aborts startup.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := Assemble(cfg, stores)

	jobCtx, cancel := context.WithCancel(context.Background())
	app.stopJobs = cancel
	app.Jobs.Start(jobCtx)

	if cfg.PluginEnabled {
		if err := app.Plugin.Activate(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// Assemble builds the services on top of already opened stores.
func Assemble(cfg config.Config, stores *storage.Stores) *App {
	registry := hooks.NewRegistry()
	collector := metrics.New()
	jobService := jobs.New(stores.Runs, 128)
	userService := users.NewService(stores.Users, registry)

	notifier := milestones.New(userService, stores.Notes, Settings(cfg),
		milestones.FeatureFlag{Label: "admin inbox", Enabled: cfg.InboxEnabled},
		milestones.StoreProbe{Label: "note store", Ping: stores.Notes.Ping},
	)
	notifier.Metrics = collector
	if cfg.EmailEnabled {
		printer := i18n.NewPrinter(cfg.StoreLocale)
		notifier.Announcer = &notes.Announcer{
			Mailer:     email.New(cfg),
			Recipients: userService,
			Jobs:       jobService,
			Role:       auth.RoleAdministrator,
			Subject:    func(n notes.Note) string { return printer.Sprintf(i18n.EmailSubject, n.Title) },
		}
	}

	app := &App{
		Config:   cfg,
		Stores:   stores,
		Hooks:    registry,
		Users:    userService,
		Notes:    notes.NewService(stores.Notes, stores.Audit),
		Notifier: notifier,
		Plugin:   milestones.NewPlugin(notifier, registry),
		Jobs:     jobService,
		Metrics:  collector,
	}
	app.Router = NewRouter(app)
	return app
}

// Settings maps configuration onto notifier settings.
func Settings(cfg config.Config) milestones.Settings {
	return milestones.Settings{
		CustomerRole:      cfg.CustomerRole,
		Locale:            cfg.StoreLocale,
		Location:          cfg.Location(),
		Source:            cfg.NoteSource,
		AnalyticsURL:      cfg.AnalyticsURL,
		SuccessStoriesURL: cfg.SuccessStoriesURL,
	}
}

func NewRouter(app *App) http.Handler {
	cfg := app.Config
	var recorder middleware.RequestRecorder
	if cfg.MetricsEnabled {
		recorder = app.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(recorder))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	system := systemhandler.NewHandler(app.Stores, nil)
	if cfg.MetricsEnabled {
		system.Metrics = app.Metrics
	}
	system.RegisterProbes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(app.Users, cfg.JWTSecret, cfg.TokenTTL)
		r.Post("/auth/login", authHandler.HandleLogin)

		customersHandler := customershandler.NewHandler(app.Users, cfg.CustomerRole,
			middleware.NewSignupThrottle(cfg.RateLimitPerMinute, cfg.SignupBurst).Middleware)
		customersHandler.Metrics = app.Metrics
		customersHandler.RegisterRoutes(r)

		noteshandler.NewHandler(app.Notes).RegisterRoutes(r)
		pluginhandler.NewHandler(app.Plugin).RegisterRoutes(r)
		system.RegisterRoutes(r)
	})

	return router
}

func (a *App) Close() {
	if a.stopJobs != nil {
		a.stopJobs()
		a.Jobs.Wait()
	}
	a.Stores.Close()
}

// Run is the server entrypoint: it exits the process on startup failure and
// shuts down gracefully on SIGINT or SIGTERM.
func Run() {
	cfg := config.Load()
	slog.SetDefault(slog.New(NewLogHandler(cfg)))

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if errors.Is(err, milestones.ErrMissingCapability) {
		fatal("missing dependency", err)
	}
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "backend", app.Stores.Backend, "pluginActive", app.Plugin.Active())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

// NewLogHandler returns a JSON handler, or a text handler in development,
// at the level named by LOG_LEVEL.
func NewLogHandler(cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.Environment == "development" {
		return slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.NewJSONHandler(os.Stderr, opts)
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

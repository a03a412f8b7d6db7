// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/lumina/internal/cache"
	"github.com/olegiv/lumina/internal/config"
	"github.com/olegiv/lumina/internal/content"
	"github.com/olegiv/lumina/internal/imaging"
	"github.com/olegiv/lumina/internal/logging"
	"github.com/olegiv/lumina/internal/mail"
	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/scheduler"
	"github.com/olegiv/lumina/internal/service"
	"github.com/olegiv/lumina/internal/session"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Lumina - publishing and reading platform API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_DB_DRIVER         sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_DB_PATH           SQLite database path (default: ./data/lumina.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_DB_DSN            MySQL DSN when LUMINA_DB_DRIVER=mysql\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_CONTENT_DIR       Static post directory (default: ./content/posts)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_REDIS_URL         Redis URL for shared caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LUMINA_RESEND_API_KEY    Resend API key for welcome emails (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(buildInfo().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func buildInfo() *version.Info {
	return &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := buildInfo()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.DBDriver == store.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.MigrateDriver(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR records also go to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.DBDriver, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	cacher := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = cacher.Close() }()

	contentStore := content.NewStore(cfg.ContentDir, logger)
	if err := contentStore.Check(); err != nil {
		slog.Warn("content directory unavailable, static posts disabled", "dir", cfg.ContentDir, "error", err, "category", "content")
	}

	mailer := mail.New(cfg.ResendAPIKey, cfg.MailFrom, logger)
	slog.Info("mailer initialized", "enabled", cfg.MailEnabled())

	posts := service.NewPostService(db, contentStore, cacher, logger, service.PostOptions{
		DBTimeout: cfg.DBTimeout,
		CacheTTL:  cfg.CacheTTLDuration(),
	})
	engagement := service.NewEngagementService(db, logger, cfg.DBTimeout)
	engagement.InvalidateListingsWith(posts)
	accounts := service.NewAccountService(db, logger, cfg.DBTimeout)
	newsletter := service.NewNewsletterService(db, mailer, logger, cfg.DBTimeout)
	defer newsletter.Wait()

	sched := scheduler.New(posts, store.New(db), scheduler.Config{
		TrendingSchedule: cfg.TrendingSchedule,
		EventRetention:   time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	r := newRouter(routerDeps{
		cfg:             cfg,
		version:         versionInfo,
		db:              db,
		sessions:        sessionManager,
		cache:           cacher,
		content:         contentStore,
		posts:           posts,
		engagement:      engagement,
		accounts:        accounts,
		newsletter:      newsletter,
		images:          imaging.NewProcessor(cfg.UploadsDir, uploadsPrefix),
		loginProtection: loginProtection,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads on slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

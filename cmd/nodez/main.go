// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/nodezblockchain/nodez-go/internal/cache"
	"github.com/nodezblockchain/nodez-go/internal/config"
	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/handler"
	"github.com/nodezblockchain/nodez-go/internal/identity"
	"github.com/nodezblockchain/nodez-go/internal/imaging"
	"github.com/nodezblockchain/nodez-go/internal/logging"
	"github.com/nodezblockchain/nodez-go/internal/middleware"
	"github.com/nodezblockchain/nodez-go/internal/remote"
	"github.com/nodezblockchain/nodez-go/internal/render"
	"github.com/nodezblockchain/nodez-go/internal/scheduler"
	"github.com/nodezblockchain/nodez-go/internal/session"
	"github.com/nodezblockchain/nodez-go/internal/store"
	"github.com/nodezblockchain/nodez-go/internal/version"
	"github.com/nodezblockchain/nodez-go/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "NodeZ - blockchain education site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_SUPABASE_URL        Remote store project URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_SUPABASE_ANON_KEY   Remote store anonymous API key (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_ADMIN_EMAILS        Comma-separated admin allow-list (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_DB_PATH             SQLite database path (default: ./data/nodez.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NODEZ_REDIS_URL           Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/nodezblockchain/nodez-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("nodez %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also mirror WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Remote store client
	remoteStore, err := remote.NewSupabase(remote.Config{
		URL:    cfg.SupabaseURL,
		APIKey: cfg.SupabaseAnonKey,
		Bucket: cfg.StorageBucket,
	})
	if err != nil {
		return fmt.Errorf("creating remote store client: %w", err)
	}

	// Sessions
	sessionManager := session.New(db, cfg.IsDevelopment())

	// Cache: Redis when configured, in-process memory otherwise
	cacheBackend, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	contentCache := cache.NewContentCache(cacheBackend, time.Duration(cfg.CacheTTL)*time.Second, logger)

	// Content repositories over the remote store
	posts := content.NewPosts(remoteStore)
	videos := content.NewVideos(remoteStore)

	// Identity resolution and the admin allow-list
	resolver := identity.NewResolver(remoteStore, cfg.AdminEmails, logger)
	notifier := identity.NewNotifier()

	// Templates
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		SiteName:       "NodeZ",
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	// Background jobs: cache rewarm and event log retention
	sched := scheduler.New(store.New(db), contentCache, cfg.EventRetentionDays, logger, posts, videos)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	app := &handler.App{
		Auth:           handler.NewAuthHandler(remoteStore, renderer, sessionManager, notifier, cfg.SiteURL, logger),
		Education:      handler.NewEducationHandler(posts, contentCache, renderer, imaging.NewProcessor(), resolver, notifier, logger),
		Videos:         handler.NewVideosHandler(videos, contentCache, renderer, imaging.NewProcessor(), resolver, notifier, logger),
		Pages:          handler.NewPagesHandler(renderer, logger),
		Health:         handler.NewHealthHandler(db),
		SessionManager: sessionManager,
		Resolver:       resolver,
		LoginLimiter:   middleware.NewLoginLimiter(logger),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	if siteURL, err := url.Parse(cfg.SiteURL); err == nil && siteURL.Host != "" {
		csrfConfig.TrustedOrigins = append(csrfConfig.TrustedOrigins, siteURL.Host)
	}
	r.Use(middleware.CSRF(csrfConfig))

	// Static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static assets: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.Mount("/", app.Routes())

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // allow large cover uploads on slow links
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/api"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/api/middleware"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/config"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/handlers"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/presence"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/realtime"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Run migrations
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")
	}

	// Initialize data store: PostgreSQL in production, SQLite for local work
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		db = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer db.Close()

	// Initialize Redis store (sessions, rate limiting)
	redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisStore.Close()
	logger.Info().Msg("connected to Redis")

	seedAdmin(ctx, db, logger)

	// Presence directory with background sweep
	dir := presence.NewDirectory(cfg.PresenceTimeout, logger)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go dir.Run(sweepCtx)

	// Realtime registry and broadcast router
	registry := realtime.NewRegistry(logger)
	router := realtime.NewRouter(db, registry, logger)

	h := handlers.NewHandler(db, redisStore, registry, router, dir, logger)
	auth := middleware.NewAuthMiddleware(redisStore)
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
		Whitelist: cfg.RateLimitWhitelist,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(logger, h, auth, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting newsroom realtime server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	registry.Shutdown()
	stopSweep()

	logger.Info().Msg("server stopped")
}

// seedAdmin creates the initial admin account on an empty database so the
// newsroom can log in after a fresh deploy. Credentials come from SEED_ADMIN_*
// and default to admin/admin locally.
func seedAdmin(ctx context.Context, db store.DataStore, logger zerolog.Logger) {
	count, err := db.CountUsers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("user count failed, skipping admin seed")
		return
	}
	if count > 0 {
		return
	}

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := envOr("SEED_ADMIN_PASSWORD", "admin")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("admin password hash failed")
		return
	}

	user, err := db.CreateUser(ctx, username, "Administrador", models.RoleAdmin, string(hash))
	if err != nil {
		logger.Error().Err(err).Msg("admin seed failed")
		return
	}

	logger.Info().
		Str("user_id", user.ID.String()).
		Str("username", username).
		Msg("seeded admin user")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

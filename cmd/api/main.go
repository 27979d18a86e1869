// Package main is the entry point for the trip planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/tripcrew/tripcrew/internal/config"
	"github.com/tripcrew/tripcrew/internal/handler"
	"github.com/tripcrew/tripcrew/internal/middleware"
	"github.com/tripcrew/tripcrew/internal/repo"
	"github.com/tripcrew/tripcrew/internal/service"
	"github.com/tripcrew/tripcrew/internal/upload"
	"github.com/tripcrew/tripcrew/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// Run migrations on startup from the embedded SQL files. goose speaks
	// database/sql, so it gets its own short-lived connection via the pgx
	// stdlib adapter while the app itself stays on the pool.
	if err := migrate(cfg.DatabaseURL); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")

	// --- Wiring -----------------------------------------------------------
	uploads, err := upload.NewStore(cfg.UploadDir, "/uploads")
	if err != nil {
		slog.Error("failed to create upload directory", "error", err)
		os.Exit(1)
	}

	users := repo.NewUserRepo(pool)
	trips := repo.NewTripRepo(pool)
	members := repo.NewMemberRepo(pool)
	posts := repo.NewPostRepo(pool)
	comments := repo.NewCommentRepo(pool)
	votes := repo.NewVoteRepo(pool)
	challenges := repo.NewChallengeRepo(pool)
	crawls := repo.NewCrawlRepo(pool)
	images := repo.NewImageRepo(pool)
	feed := repo.NewFeedRepo(pool)

	identitySvc := service.NewIdentityService(users)
	tripSvc := service.NewTripService(trips, members)
	postSvc := service.NewPostService(trips, members, posts, comments, votes, challenges, crawls, images)
	feedSvc := service.NewFeedService(trips, members, feed)

	srv := handler.NewServer(identitySvc, tripSvc, feedSvc, postSvc, uploads)
	auth := middleware.NewAuthHandler([]byte(cfg.JWTSecret))

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, SlogLogger,
	// Recoverer, CORS, body-size cap.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxUploadBytes))

	r.Mount("/api", srv.Routes(auth))

	// Uploaded images are served as plain static files. URLs are uuid-keyed
	// and unguessable but not access-controlled.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies all pending migrations from the embedded filesystem.
func migrate(databaseURL string) error {
	db, err := goose.OpenDBWithDriver("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

// Package main boots the admin API: configuration, storage, session
// infrastructure, background jobs and the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lastmile/admin-api/internal/api"
	"github.com/lastmile/admin-api/internal/core/service"
	"github.com/lastmile/admin-api/internal/infrastructure/audit"
	"github.com/lastmile/admin-api/internal/infrastructure/config"
	"github.com/lastmile/admin-api/internal/infrastructure/db/postgres"
	redisdb "github.com/lastmile/admin-api/internal/infrastructure/db/redis"
	"github.com/lastmile/admin-api/internal/infrastructure/identity"
	"github.com/lastmile/admin-api/internal/infrastructure/jobs"
	"github.com/lastmile/admin-api/internal/infrastructure/seed"
	"github.com/lastmile/admin-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load(slog.Default())

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	db, err := postgres.Open(ctx, postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer db.Close()

	if err := postgres.Apply(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Identity infrastructure ---
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	sessionStore := redisdb.NewSessionStore(rdb)
	hasher := identity.NewBcryptHasher()

	sessions := identity.NewManager(sessionStore,
		time.Duration(cfg.Cookie.ExpirationMinutes)*time.Minute,
		time.Duration(cfg.Cookie.PersistentExpirationMinutes)*time.Minute,
	)
	cookies, err := identity.NewCookieCodec(cfg.Cookie)
	if err != nil {
		log.Fatal().Err(err).Msg("cookie configuration invalid")
	}

	dispatcher := audit.NewDispatcher(0, auditRepo, log)
	dispatcher.Start(ctx)

	// --- Services ---
	users := service.NewUserService(userRepo, hasher, dispatcher, log)
	accounts := service.NewAccountService(userRepo, hasher, sessions, dispatcher, log)

	if err := seed.NewSeeder(userRepo, hasher, cfg.Seed, log).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("database seeding failed")
	}

	// --- Background jobs ---
	scheduler := jobs.NewScheduler(log)
	retention := time.Duration(cfg.Jobs.AuditRetentionDays) * 24 * time.Hour
	if err := scheduler.Register("audit-purge", cfg.Jobs.PurgeSchedule, jobs.AuditPurge(auditRepo, retention, log)); err != nil {
		log.Fatal().Err(err).Msg("job registration failed")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- HTTP server ---
	e, err := api.NewRouter(api.Dependencies{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Users:     users,
		Accounts:  accounts,
		Sessions:  sessions,
		Cookies:   cookies,
		Scheduler: scheduler,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router construction failed")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("admin api started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}

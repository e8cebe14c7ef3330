// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Veyra HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/taibuivan/veyra/internal/api"
	"github.com/taibuivan/veyra/internal/core/community"
	"github.com/taibuivan/veyra/internal/core/message"
	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/core/rule"
	"github.com/taibuivan/veyra/internal/platform/config"
	"github.com/taibuivan/veyra/internal/platform/constants"
	"github.com/taibuivan/veyra/internal/platform/migration"
	pgstore "github.com/taibuivan/veyra/internal/platform/postgres"
	redisstore "github.com/taibuivan/veyra/internal/platform/redis"
	"github.com/taibuivan/veyra/internal/platform/sec"
	"github.com/taibuivan/veyra/internal/users/account"
	"github.com/taibuivan/veyra/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "veyra"))
	slog.SetDefault(log)

	log.Info("[Veyra] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "veyra"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(rdb)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)
	authService := auth.NewService(userRepository, sessionRepository, resetTokenRepository, jwtSvc)
	authHandler := auth.NewHandler(authService)

	// The message service consults moderation state (mutes, roster) and the
	// moderation service delivers invitations and notices through messages.
	// The gate defers the moderation lookup until both services exist.
	gate := &moderationGate{}
	messageRepository := message.NewPostgresRepository(pool)
	messageService := message.NewService(messageRepository, gate, log)
	messageHandler := message.NewHandler(messageService)

	moderationRepository := moderation.NewPostgresRepository(pool)
	moderationService := moderation.NewService(moderationRepository, messageService, messageService, log, cfg.AllowRepeatMutes)
	moderationHandler := moderation.NewHandler(moderationService)
	gate.service = moderationService

	communityRepository := community.NewPostgresRepository(pool)
	communityService := community.NewService(communityRepository, moderationService, log)
	communityHandler := community.NewHandler(communityService)

	ruleRepository := rule.NewPostgresRepository(pool)
	ruleService := rule.NewService(ruleRepository, moderationService, communityService, log)
	ruleHandler := rule.NewHandler(ruleService)

	membershipRepository := account.NewMembershipRepository(pool)
	accountService := account.NewService(userRepository, membershipRepository, sessionRepository, log)
	accountHandler := account.NewHandler(accountService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       authHandler,
		Account:    accountHandler,
		Community:  communityHandler,
		Moderation: moderationHandler,
		Rule:       ruleHandler,
		Message:    messageHandler,
	}

	server := api.NewServer(context.Background(), cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// moderationGate adapts the moderation service to the message package's
// ModerationReader contract. The service field is set after both services
// are constructed; all calls happen at request time, well after wiring.
type moderationGate struct {
	service *moderation.Service
}

func (gate *moderationGate) IsMuted(context context.Context, communityID, userID string) (bool, error) {
	return gate.service.IsMuted(context, communityID, userID)
}

func (gate *moderationGate) IsActiveModerator(context context.Context, communityID, userID string) (bool, error) {
	return gate.service.IsActiveModerator(context, communityID, userID)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

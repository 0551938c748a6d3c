// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

// Command api is the entry point for the Vendaro HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the upstream client, caches, queues and relay.
//  7. Start the connectivity monitor.
//  8. Start HTTP server with graceful shutdown.
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

	"github.com/vendaro/vendaro/internal/api"
	"github.com/vendaro/vendaro/internal/catalog"
	"github.com/vendaro/vendaro/internal/platform/cache"
	"github.com/vendaro/vendaro/internal/platform/config"
	"github.com/vendaro/vendaro/internal/platform/constants"
	"github.com/vendaro/vendaro/internal/platform/identity"
	"github.com/vendaro/vendaro/internal/platform/migration"
	pgstore "github.com/vendaro/vendaro/internal/platform/postgres"
	redisstore "github.com/vendaro/vendaro/internal/platform/redis"
	"github.com/vendaro/vendaro/internal/queue"
	"github.com/vendaro/vendaro/internal/relay"
	"github.com/vendaro/vendaro/internal/upstream"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Vendaro] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamBaseURL),
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

	// ── 6. Upstream Client & Catalog ──────────────────────────────────────
	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamQuickTimeout, cfg.UpstreamBulkTimeout, log)

	collectionCache := cache.New[[]upstream.Entity](cache.Options{
		Store:  cache.NewRedisStore(rdb, constants.RedisPrefixCatalog),
		Logger: log,
	})
	treeCache := cache.New[[]*catalog.TreeNode](cache.Options{Logger: log})

	fetcher := catalog.NewFetcher(upstreamClient, log)
	catalogService := catalog.NewService(fetcher, collectionCache, treeCache, log)
	catalogHandler := catalog.NewHandler(catalogService)

	// ── 7. Queues & Relay ─────────────────────────────────────────────────
	queueStore := queue.NewPostgresStore(pool)
	replayLock := queue.NewRedisLock(rdb, constants.RedisKeyReplayLock, constants.ReplayLockTTL)

	responseCache := cache.New[relay.Response](cache.Options{
		Store:  cache.NewRedisStore(rdb, constants.RedisPrefixRelayResp),
		Logger: log,
	})

	// The queues and the relay reference each other (the relay enqueues,
	// the queues replay through the relay's senders), so the senders are
	// attached after construction.
	var relayClient *relay.Client
	mutationQueue := queue.New(queue.KindMutation, queueStore,
		func(ctx context.Context, op *queue.Operation) error {
			return relayClient.MutationSender()(ctx, op)
		}, replayLock, log)
	uploadQueue := queue.NewUploadQueue(queueStore,
		func(ctx context.Context, op *queue.Operation) error {
			return relayClient.UploadSender()(ctx, op)
		}, replayLock, log)
	relayClient = relay.NewClient(upstreamClient, responseCache, mutationQueue, uploadQueue, cfg.UploadSpoolDir, log)

	monitor := relay.NewMonitor(upstreamClient.Ping, constants.ConnectivityProbeInterval, log)
	monitor.OnOnline(func(ctx context.Context) {
		// Connectivity restored is an explicit retry trigger: operations that
		// failed during an earlier drain go back to pending before this pass.
		mutationQueue.RetryFailed(ctx)
		uploadQueue.RetryFailedUploads(ctx)
		mutationQueue.ProcessAll(ctx)
		uploadQueue.ProcessQueue(ctx)
	})

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	go monitor.Run(monitorCtx)

	relayHandler := relay.NewHandler(relayClient, mutationQueue, uploadQueue, monitor)

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckUpstream: func() error {
			return upstreamClient.Ping(context.Background())
		},
	}, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	verifier := identity.NewVerifier(cfg.VendorJWTSecret)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Catalog:   catalogHandler,
		Relay:     relayHandler,
	}

	server := api.NewServer(monitorCtx, cfg, log, verifier, handlers)

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

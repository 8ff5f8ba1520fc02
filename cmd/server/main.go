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

	"github.com/jonboulle/clockwork"

	"trackvote/internal/catalog"
	"trackvote/internal/httpserver"
	"trackvote/internal/platform/config"
	"trackvote/internal/platform/logging"
	"trackvote/internal/postgres"
	"trackvote/internal/redis"
	"trackvote/internal/session"
	"trackvote/internal/sweeper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	clock := clockwork.NewRealClock()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting track catalog service", "env", cfg.AppEnv)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	trackRepo := postgres.NewTrackRepo(pool)
	sessionRepo := postgres.NewSessionRepo(pool)

	var topCache catalog.TopCache
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		topCache = redis.NewTopCache(rdb, cfg.TopCacheTTL)
		slog.Info("Top listing cache enabled", "ttl", cfg.TopCacheTTL.String())
	}

	catalogSvc := catalog.NewService(trackRepo, topCache, clock)
	sessionSvc := session.NewService(sessionRepo, trackRepo)

	sweep := sweeper.New(sessionRepo, clock, cfg.SweepInterval)
	sweep.Start()
	defer sweep.Stop()

	srv := httpserver.NewServer(cfg, catalogSvc, sessionSvc, pool)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server stopped unexpectedly", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Server stopped")
}

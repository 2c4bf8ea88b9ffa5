package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/api"
	"github.com/Harshitk-cp/skybot/internal/bootstrap"
	"github.com/Harshitk-cp/skybot/internal/buildconfig"
	"github.com/Harshitk-cp/skybot/internal/config"
	"github.com/Harshitk-cp/skybot/internal/logger"
	"github.com/Harshitk-cp/skybot/internal/metrics"
	"github.com/Harshitk-cp/skybot/internal/service"
	"github.com/Harshitk-cp/skybot/internal/store"
)

func main() {
	_ = config.Load()

	log, err := logger.New(config.LogEnv(), config.LogLevel())
	if err != nil {
		log, _ = zap.NewProduction()
		log.Warn("falling back to default logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	var pool *pgxpool.Pool
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal("failed to ping database", zap.Error(err))
		}
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		log.Info("connected to database")
	} else {
		log.Info("DATABASE_URL not set, running without persistence")
	}

	sessionCfg, err := bootstrap.SessionConfig(pool, log)
	if err != nil {
		log.Fatal("failed to configure dialogue", zap.Error(err))
	}

	metrics.RegisterDialogueMetrics()

	registry := service.NewRegistry(sessionCfg, config.SessionIdleTimeout(), log)
	registry.Start()

	app := api.NewApp(registry, pool, log)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("provider", config.FlightsProvider()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")

	registry.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

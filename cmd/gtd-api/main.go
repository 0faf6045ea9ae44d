package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/api"
	"github.com/alexalex89/task-management/config"
	"github.com/alexalex89/task-management/postgres"
	"github.com/alexalex89/task-management/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.Production() {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithFields(log.Fields{"error": err.Error()}).Fatal("failed to start application")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() {
		pool.Close()
		logger.Info("database pool closed")
	}()

	if err := postgres.WaitForDatabase(ctx, postgres.PoolPinger{Pool: pool}, cfg.Postgres.WaitRetries, cfg.Postgres.WaitInterval, logger); err != nil {
		return err
	}
	if err := postgres.Init(ctx, pool, logger); err != nil {
		return err
	}

	var repo api.Repository = postgres.NewRepository(pool)
	var rateStore middleware.RateLimiterStore
	if cfg.Redis.ConnectionString != "" {
		rc := storage.NewRedisClient(cfg.Redis.ConnectionString)
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		repo = storage.NewCache(repo, rc, cfg.Redis.CacheTTL)
		rateStore = storage.NewRedisRateStore(rc, cfg.RateLimit.Max, cfg.RateLimit.Window)
		logger.WithFields(log.Fields{"cache_ttl": cfg.Redis.CacheTTL.String()}).Info("redis cache enabled")
	}

	e := api.New(repo, logger, api.Options{
		AllowOrigins: cfg.AllowedOrigins(),
		BodyLimit:    cfg.BodyLimit,
		RateLimit: api.RateLimitOptions{
			Window: cfg.RateLimit.Window,
			Max:    cfg.RateLimit.Max,
			Store:  rateStore,
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("server running")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received, shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetflow/assetflow/internal/app"
	"github.com/assetflow/assetflow/internal/audit"
	"github.com/assetflow/assetflow/internal/authz"
	authzhttp "github.com/assetflow/assetflow/internal/authz/http"
	"github.com/assetflow/assetflow/internal/observability"
	"github.com/assetflow/assetflow/internal/pipeline"
	"github.com/assetflow/assetflow/internal/platform/cache"
	"github.com/assetflow/assetflow/internal/platform/db"
	"github.com/assetflow/assetflow/internal/ratelimit"
	"github.com/assetflow/assetflow/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sinks := audit.MultiSink{audit.NewSlogSink(logger)}
	if cfg.PGDSN != "" {
		dbpool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		sinks = append(sinks, audit.NewPostgresSink(dbpool))
	}

	matrix := authz.NewMatrix()
	resolver := shared.NewRedisResolver(redisClient, cfg.SessionCookie, logger)
	recorder := audit.NewRecorder(sinks, logger)

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitStore == "redis" {
		store = ratelimit.NewRedisStore(redisClient)
	}

	pipe := pipeline.New(logger, matrix, resolver, store, recorder, pipeline.Config{
		Hardened:        cfg.IsProduction(),
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	metrics := observability.NewMetrics()
	permissionsHandler := authzhttp.NewPermissionsHandler(logger, matrix)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pipeline:           pipe,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

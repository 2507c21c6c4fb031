package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elroble/vendibot/cmd/mainconfig"
	"github.com/elroble/vendibot/internal/api/router"
	"github.com/elroble/vendibot/internal/app/bootstrap"
	"github.com/elroble/vendibot/internal/catalog"
	appconfig "github.com/elroble/vendibot/internal/config"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/pkg/logging"
)

func main() {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vendibot API server", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *pgxpool.Pool
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		sqlDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open transcript database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = sqlDB.Close() }()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	pipeline, err := bootstrap.BuildPipeline(ctx, cfg, awsCfg, pool, sqlDB, logger)
	if err != nil {
		logger.Error("failed to build conversation pipeline", "error", err)
		os.Exit(1)
	}

	// With the in-memory queue, jobs only exist in this process, so the
	// worker must run embedded. With SQS the dedicated worker binary
	// consumes instead.
	if cfg.UseMemoryQueue {
		pipeline.Worker.Start(ctx)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		CatalogHandler:     catalog.NewHandler(pipeline.CatalogRepo, logger),
		OrdersHandler:      orders.NewHandler(pipeline.OrdersRepo, logger),
		WhatsAppAdapter:    pipeline.WhatsApp,
		WebchatHandler:     pipeline.Webchat,
		MetricsHandler:     promhttp.HandlerFor(pipeline.Registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	cancel()
	if cfg.UseMemoryQueue {
		waitCh := make(chan struct{})
		go func() {
			pipeline.Worker.Wait()
			close(waitCh)
		}()
		select {
		case <-waitCh:
		case <-shutdownCtx.Done():
			logger.Error("worker shutdown timed out")
		}
	}

	logger.Info("server stopped")
}

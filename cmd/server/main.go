// Package main is the entry point for the pallet ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"palletledger/internal/app"
	v1 "palletledger/internal/infrastructure/http/v1"
	"palletledger/internal/infrastructure/http/v1/handlers"
	"palletledger/pkg/config"
	"palletledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting palletledger server", "env", cfg.App.Env, "storage", cfg.App.Storage)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	var storage handlers.Pinger
	if a.Pool != nil {
		storage = a.Pool
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Storage:        storage,
		StorageDriver:  cfg.App.Storage,
		Registry:       a.Registry,
		Engine:         a.Engine,
		Audit:          a.Audit,
		Pipeline:       a.Pipeline,
		MaxUploadBytes: int64(cfg.Ingest.MaxUploadMB) << 20,
		Debug:          cfg.App.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

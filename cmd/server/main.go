// Package main is the entry point for the Eazy Recycling API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Colossus92/eazy-recycling-sub004/internal/app"
	"github.com/Colossus92/eazy-recycling-sub004/internal/config"
	v1 "github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/handlers"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.Development(),
		Service:     "eazy-recycling-api",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting eazy recycling server", "version", version, "env", cfg.App.Env)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	checks := map[string]handlers.Check{"database": a.Ping}
	if a.Redis != nil {
		checks["redis"] = a.PingRedis
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Version:        version,
		Metrics:        a.Metrics,
		HealthChecks:   checks,
		Idempotency:    postgres.NewIdempotencyStore(a.TxManager, cfg.HTTP.IdempotencyTTL),
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		WasteStreams:   a.WasteStreams,
		WeightTickets:  a.WeightTickets,
		Invoices:       a.Invoices,
		Declarations:   a.Declarations,
		Imports:        a.Imports,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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
	_ = log.Sync()
}

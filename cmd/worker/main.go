// Package main is the entry point for the Eazy Recycling background worker.
// It relays outbox events, runs the monthly LMA declarations and purges
// expired bookkeeping rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Colossus92/eazy-recycling-sub004/internal/app"
	"github.com/Colossus92/eazy-recycling-sub004/internal/config"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.Development(),
		Service:     "eazy-recycling-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting eazy recycling worker")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	worker, err := NewWorker(a)
	if err != nil {
		log.Fatalw("failed to initialize worker", "error", err)
	}
	defer worker.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
	_ = log.Sync()
}

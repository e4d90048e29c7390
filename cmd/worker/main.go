package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clearaway_backend/internal/backend"
	"clearaway_backend/internal/delivery"
	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting delivery worker", "env", cfg.Env, "queue", cfg.DeliveryQueue)

	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the delivery worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := backend.NewClient(cfg, log)

	worker, err := delivery.NewWorker(cfg, gateway, log)
	if err != nil {
		log.Error("failed to initialize delivery worker", "error", err)
		panic("failed to initialize delivery worker: " + err.Error())
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		worker.Shutdown()
	case err := <-srvErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

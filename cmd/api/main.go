package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clearaway_backend/internal/backend"
	"clearaway_backend/internal/booking"
	"clearaway_backend/internal/booking/repository"
	"clearaway_backend/internal/booking/service"
	"clearaway_backend/internal/delivery"
	apphttp "clearaway_backend/internal/http"
	"clearaway_backend/internal/http/router"
	"clearaway_backend/internal/payment"
	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"
	"clearaway_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	repo, health, closeRepo := initSessionStore(ctx, cfg, log)
	if closeRepo != nil {
		defer closeRepo()
	}

	queueClient, closeQueue := initDeliveryQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}
	var queue service.FallbackQueue
	if queueClient != nil {
		queue = queueClient
	}

	gateway := backend.NewClient(cfg, log)
	payments := payment.New(gateway, cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	bookingModule, err := booking.NewModule(repo, gateway, gateway, payments, queue, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize booking module", "error", err)
		panic("failed to initialize booking module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			bookingModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSessionStore picks the Redis-backed store when REDIS_URL is set and
// falls back to the in-process store otherwise. The in-process store is fine
// for a single instance; sessions die with the process.
func initSessionStore(ctx context.Context, cfg config.SessionConfig, log *logger.Logger) (repository.Repository, apphttp.HealthChecker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-process session store")
		return repository.NewMemory(), nil, nil
	}

	redisRepo, err := repository.NewRedis(cfg.GetRedisURL(), cfg.GetSessionTTL())
	if err != nil {
		log.Error("failed to connect to session store", "error", err)
		panic("failed to connect to session store: " + err.Error())
	}
	if err := redisRepo.Ping(ctx); err != nil {
		log.Error("session store unreachable", "error", err)
		panic("session store unreachable: " + err.Error())
	}
	log.Info("session store connected", "ttl", cfg.GetSessionTTL())

	return redisRepo, redisRepo, func() {
		_ = redisRepo.Close()
	}
}

// initDeliveryQueue enables the best-effort redelivery queue when Redis is
// available. Without it, failed submissions fall back to a single blind
// re-post.
func initDeliveryQueue(cfg config.DeliveryConfig, log *logger.Logger) (*delivery.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; submission redelivery queue disabled")
		return nil, nil
	}

	client, err := delivery.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize delivery queue client", "error", err)
		return nil, nil
	}
	log.Info("delivery queue enabled", "queue", cfg.GetDeliveryQueueName())

	return client, func() {
		_ = client.Close()
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/delivery/events"
	"github.com/Pesokrava/jewelry_store/internal/pkg/cache"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/jewelry_store/internal/repository/cache"
	"github.com/Pesokrava/jewelry_store/internal/repository/store"
	"github.com/Pesokrava/jewelry_store/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).With("service", events.RatingWorkerConsumer)
	appLogger.Info("Starting rating worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := store.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", err)
	}
	defer repos.Close()

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	redisCache := cacheRepo.NewRedisCache(redisClient, cfg.Cache.ProductTTL, cfg.Cache.ReviewsListTTL)
	reconciler := worker.NewReconciler(repos.Products, redisCache, appLogger)
	ratingWorker := worker.NewRatingWorker(reconciler, appLogger)

	appLogger.Info("Connecting to NATS JetStream...")
	consumer, err := events.NewConsumer(cfg, events.RatingWorkerConsumer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create JetStream consumer", err)
	}
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx, ratingWorker.HandleEvent)
	}()

	<-ctx.Done()
	appLogger.Info("Received shutdown signal")
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ratingWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Rating worker stopped")
}

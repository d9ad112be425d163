package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/delivery/events"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/repository/store"
	"github.com/Pesokrava/jewelry_store/internal/usecase/notification"
	"github.com/Pesokrava/jewelry_store/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).With("service", events.NotifierConsumer)
	appLogger.Info("Starting notifier...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := store.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", err)
	}
	defer repos.Close()

	notifier := worker.NewNotifier(notification.NewService(repos.Notifications, appLogger), appLogger)

	consumer, err := events.NewConsumer(cfg, events.NotifierConsumer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create JetStream consumer", err)
	}
	defer consumer.Close()

	consumer.Run(ctx, notifier.HandleEvent)

	appLogger.Info("Notifier stopped")
}

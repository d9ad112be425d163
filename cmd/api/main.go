package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/jewelry_store/internal/delivery/http"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/handler"
	"github.com/Pesokrava/jewelry_store/internal/pkg/cache"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/jewelry_store/internal/repository/cache"
	"github.com/Pesokrava/jewelry_store/internal/repository/store"
	"github.com/Pesokrava/jewelry_store/internal/usecase/address"
	"github.com/Pesokrava/jewelry_store/internal/usecase/cart"
	"github.com/Pesokrava/jewelry_store/internal/usecase/category"
	"github.com/Pesokrava/jewelry_store/internal/usecase/notification"
	"github.com/Pesokrava/jewelry_store/internal/usecase/product"
	"github.com/Pesokrava/jewelry_store/internal/usecase/review"
	"github.com/Pesokrava/jewelry_store/internal/usecase/user"

	_ "github.com/Pesokrava/jewelry_store/docs"
)

// @title Jewelry Store API
// @version 1.0
// @description Storefront API for a jewelry shop: catalog, carts, moderated reviews, addresses and notifications.

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/jewelry_store

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token, e.g. "Bearer eyJhbGci..."

// @tag.name Products
// @tag.description Catalog endpoints

// @tag.name Categories
// @tag.description Category tree endpoints

// @tag.name Cart
// @tag.description Shopping cart of the caller

// @tag.name Reviews
// @tag.description Review submission and moderation

// @tag.name Addresses
// @tag.description Saved shipping and billing addresses

// @tag.name Notifications
// @tag.description In-app notifications of the caller

// @tag.name Users
// @tag.description User administration

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Jewelry Store API...")

	if cfg.Auth.JWTSecret == "" {
		appLogger.Fatal("JWT_SECRET must be set", errors.New("empty JWT secret"))
	}

	repos, err := store.Open(context.Background(), cfg, appLogger)
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
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.ReviewsListTTL,
	)

	productService := product.NewService(repos.Products, repos.Categories, redisCache, appLogger)
	categoryService := category.NewService(repos.Categories, repos.Products, appLogger)
	cartService := cart.NewService(repos.Carts, appLogger)
	reviewService := review.NewService(repos.Reviews, repos.Products, redisCache, publisher, appLogger)
	addressService := address.NewService(repos.Addresses, appLogger)
	notificationService := notification.NewService(repos.Notifications, appLogger)
	userService := user.NewService(repos.Users, repos.Products, redisCache, appLogger)

	router := httpDelivery.NewRouter(httpDelivery.Handlers{
		Products:      handler.NewProductHandler(productService, appLogger),
		Categories:    handler.NewCategoryHandler(categoryService, appLogger),
		Cart:          handler.NewCartHandler(cartService, appLogger),
		Reviews:       handler.NewReviewHandler(reviewService, appLogger),
		Addresses:     handler.NewAddressHandler(addressService, appLogger),
		Notifications: handler.NewNotificationHandler(notificationService, appLogger),
		Users:         handler.NewUserHandler(userService, appLogger),
	}, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}

	// in-flight event publishes finish before the NATS connection drains
	reviewService.Wait()

	appLogger.Info("Server stopped gracefully")
}

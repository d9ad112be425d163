package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Pesokrava/jewelry_store/internal/config"
)

// NewMongoDatabase connects to MongoDB and returns the configured database
// handle. The caller owns the client and must Disconnect it.
func NewMongoDatabase(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(uint64(cfg.Database.MaxOpenConns))

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.Mongo.Database), nil
}

// WaitForMongo waits for MongoDB to become available with retries
func WaitForMongo(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*mongo.Database, error) {
	var db *mongo.Database
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = NewMongoDatabase(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after %d retries: %w", maxRetries, err)
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/database"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/repository/mongodb"
	"github.com/Pesokrava/jewelry_store/internal/repository/sqldb"
)

const (
	connectRetries    = 10
	connectRetryDelay = 2 * time.Second
)

// Repositories is the set of repositories backed by one configured store
type Repositories struct {
	Products      domain.ProductRepository
	Categories    domain.CategoryRepository
	Carts         domain.CartRepository
	Reviews       domain.ReviewRepository
	Addresses     domain.AddressRepository
	Notifications domain.NotificationRepository
	Users         domain.UserRepository

	close func() error
}

// Close releases the underlying connection
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open connects to the store selected by cfg.Store, prepares its schema and
// returns the repositories built on it
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	switch cfg.Store {
	case config.StoreSQL:
		return openSQL(cfg, log)
	case config.StoreMongo:
		return openMongo(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store)
	}
}

func openSQL(cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	log.With("driver", cfg.Database.Driver).Info("Connecting to SQL database...")
	db, err := database.WaitForDB(cfg, connectRetries, connectRetryDelay)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Connected to SQL database successfully")

	return &Repositories{
		Products:      sqldb.NewProductRepository(db),
		Categories:    sqldb.NewCategoryRepository(db),
		Carts:         sqldb.NewCartRepository(db),
		Reviews:       sqldb.NewReviewRepository(db),
		Addresses:     sqldb.NewAddressRepository(db),
		Notifications: sqldb.NewNotificationRepository(db),
		Users:         sqldb.NewUserRepository(db),
		close:         db.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	log.Info("Connecting to MongoDB...")
	db, err := database.WaitForMongo(cfg, connectRetries, connectRetryDelay)
	if err != nil {
		return nil, err
	}

	disconnect := func() error {
		return db.Client().Disconnect(context.Background())
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = disconnect()
		return nil, err
	}
	log.Info("Connected to MongoDB successfully")

	return &Repositories{
		Products:      mongodb.NewProductRepository(db),
		Categories:    mongodb.NewCategoryRepository(db),
		Carts:         mongodb.NewCartRepository(db),
		Reviews:       mongodb.NewReviewRepository(db),
		Addresses:     mongodb.NewAddressRepository(db),
		Notifications: mongodb.NewNotificationRepository(db),
		Users:         mongodb.NewUserRepository(db),
		close:         disconnect,
	}, nil
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreSQL,
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			Path:         ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
	}

	repos, err := Open(context.Background(), cfg, logger.New("test"))
	require.NoError(t, err)
	defer repos.Close()

	categories, err := repos.Categories.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: "etcd"}, logger.New("test"))
	assert.ErrorContains(t, err, "unsupported store driver")
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreSQL, cfg.Store)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "root:@tcp(localhost:3306)/jewelry_store?parseTime=true&loc=UTC&clientFoundRows=true", cfg.GetDSN())
}

func TestLoad_InvalidStore(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	viper.Reset()
	t.Setenv("CACHE_TTL_PRODUCT", "soon")

	_, err := Load()

	assert.ErrorContains(t, err, "CACHE_TTL_PRODUCT")
}

func TestGetDSN_Drivers(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDSN())

	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = "store.db"
	assert.Contains(t, cfg.GetDSN(), "file:store.db?")
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.App.Storage)
	assert.Equal(t, 50, cfg.Ingest.MaxErrors)
	assert.Equal(t, IngestModeSavepoint, cfg.Ingest.Mode)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("INGEST_MODE", "independent")
	v.Set("INGEST_MAX_ERRORS", "10")
	v.Set("DB_STATEMENT_TIMEOUT", "5s")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.App.Storage)
	assert.Equal(t, IngestModeIndependent, cfg.Ingest.Mode)
	assert.Equal(t, 10, cfg.Ingest.MaxErrors)
	assert.Equal(t, 5*time.Second, cfg.DB.StatementTimeout)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "mongo")
	_, err := fromViper(v)
	assert.ErrorContains(t, err, "STORAGE_DRIVER")

	v = viper.New()
	v.Set("INGEST_MODE", "parallel")
	_, err = fromViper(v)
	assert.ErrorContains(t, err, "INGEST_MODE")
}

func TestConnectionString(t *testing.T) {
	db := DBConfig{Host: "db", Port: 5433, User: "ledger", Password: "p@ss/word", DBName: "pallets", SSLMode: "require"}
	assert.Equal(t, "postgres://ledger:p%40ss%2Fword@db:5433/pallets?sslmode=require", db.ConnectionString())

	db.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", db.ConnectionString())
}

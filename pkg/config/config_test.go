package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, time.Minute, cfg.Settlement.Interval)
	assert.Equal(t, 3*time.Minute, cfg.Settlement.GraceWindow)
	assert.True(t, cfg.Settlement.Enabled)
	assert.Equal(t, "ticket_notifications", cfg.Events.PurchaseQueue)
	assert.Equal(t, "miles_notifications", cfg.Events.MilesQueue)
	assert.Equal(t, 5, cfg.AWS.MaxAttempts)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/skymiles")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SEARCH_CACHE_TTL", "30s")
	t.Setenv("SETTLEMENT_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Settlement.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("SETTLEMENT_INTERVAL", "every minute")
	t.Setenv("REDIS_DB", "zero")

	_, err := FromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SETTLEMENT_INTERVAL")
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestValidate(t *testing.T) {
	t.Run("DynamoDB Tables Required", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "dynamodb")
		t.Setenv("DYNAMODB_FLIGHTS_TABLE_NAME", "flights")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.ErrorContains(t, cfg.Validate(), "DynamoDB table name")
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sqlite")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.ErrorContains(t, cfg.Validate(), "unknown STORAGE_BACKEND")
	})

	t.Run("Postgres Needs URL", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})
}

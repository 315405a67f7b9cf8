package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorageExternal, cfg.Storage)
	assert.Equal(t, NotifyLocal, cfg.NotifyBackend)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.CartCacheEnabled)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("NOTIFY_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("CART_CACHE_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com,https://shop.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, NotifyKafka, cfg.NotifyBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown storage", map[string]string{"JWT_SECRET": "s", "STORAGE": "s3"}},
		{"unknown notify backend", map[string]string{"JWT_SECRET": "s", "NOTIFY_BACKEND": "smtp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

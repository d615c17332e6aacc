package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "REMOTE_API_URL",
		"PINATA_API_KEY", "PINATA_SECRET", "MINIO_ENDPOINT",
		"ENCRYPTION_KEY", "JWT_SECRET", "CACHE_PATH",
	} {
		t.Setenv(key, "")
	}

	cfg := Load(zerolog.Nop())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultEncryptionKey, cfg.EncryptionKey)
	assert.Equal(t, "https://api.pinata.cloud", cfg.PinataBaseURL)
	assert.Equal(t, "https://gateway.pinata.cloud", cfg.PinataGateway)
	assert.Equal(t, "data/cache", cfg.CachePath)
	assert.False(t, cfg.HasPinata())
	assert.False(t, cfg.HasMinio())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENCRYPTION_KEY", "real-key")
	t.Setenv("PINATA_API_KEY", "key")
	t.Setenv("PINATA_SECRET", "secret")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load(zerolog.Nop())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "real-key", cfg.EncryptionKey)
	assert.True(t, cfg.HasPinata())
	assert.True(t, cfg.HasMinio())
	assert.True(t, cfg.MinioUseSSL)
}

func TestHasPinataRequiresBothCredentials(t *testing.T) {
	t.Setenv("PINATA_API_KEY", "key")
	t.Setenv("PINATA_SECRET", "")

	cfg := Load(zerolog.Nop())
	assert.False(t, cfg.HasPinata())
}

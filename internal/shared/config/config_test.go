package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "DATABASE_URL", "APP_SECRET_KEY", "ACCESS_TOKEN_EXPIRES_HOURS", "MAX_CONTENT_LENGTH_MB", "ALLOWED_EXTENSIONS", "OCR_PROVIDER", "STORAGE_ROOT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, devSecretKey, cfg.SecretKey)
	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "stub", cfg.OCRProvider)
	assert.Equal(t, "./storage", cfg.StorageRoot)
	assert.Contains(t, cfg.AllowedExtensions, "pdf")
	assert.Contains(t, cfg.AllowedExtensions, "txt")
	assert.True(t, cfg.UsesMemoryStores())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/receipts")
	t.Setenv("APP_SECRET_KEY", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRES_HOURS", "2")
	t.Setenv("MAX_CONTENT_LENGTH_MB", "5")
	t.Setenv("ALLOWED_EXTENSIONS", " .PDF, png ,")
	t.Setenv("OCR_PROVIDER", "TextLayer")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	require.Equal(t, "production", cfg.Env)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"pdf", "png"}, cfg.AllowedExtensions)
	assert.Equal(t, "textlayer", cfg.OCRProvider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.False(t, cfg.UsesMemoryStores())
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRES_HOURS", "soon")
	t.Setenv("MAX_CONTENT_LENGTH_MB", "-3")

	cfg := Load()

	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
}

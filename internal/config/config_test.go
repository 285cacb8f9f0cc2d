package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "PG_HOST",
		"PG_PORT", "PG_DATABASE", "REDIS_DB", "TOKEN_EXPIRE_TIME", "SUGGESTION_CACHE_TTL", "CORS_ORIGINS",
		"MEDIA_BACKEND", "S3_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "postgres://postgres:@localhost:5432/collabnet", cfg.PostgresDSN)
	assert.Equal(t, 5*time.Minute, cfg.SuggestionCacheTTL)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "minio", cfg.MediaBackend)
}

func TestLoadMediaBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDIA_BACKEND", "s3")
	_, err := Load()
	assert.ErrorContains(t, err, "S3_ENDPOINT")

	t.Setenv("S3_ENDPOINT", "https://acct.r2.cloudflarestorage.com/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.MediaBackend)
	assert.Equal(t, "auto", cfg.S3Region)

	t.Setenv("MEDIA_BACKEND", "ftp")
	_, err = Load()
	assert.ErrorContains(t, err, "MEDIA_BACKEND")
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_DATABASE", "social")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_EXPIRE_TIME", "24h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:secret@db:5432/social", cfg.PostgresDSN)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadDatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	t.Setenv("PG_HOST", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", cfg.PostgresDSN)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"LOG_LEVEL":            "loud",
		"REDIS_DB":             "zero",
		"TOKEN_EXPIRE_TIME":    "soon",
		"SUGGESTION_CACHE_TTL": "5 minutes",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

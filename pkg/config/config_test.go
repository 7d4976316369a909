package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/natours")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, 90*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, int64(10240), cfg.BodyLimitBytes)
	assert.Equal(t, "aud", cfg.Currency)
	assert.False(t, cfg.IsProduction())
}

func TestLoadDatabaseTemplate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE", "postgres://natours:<PASSWORD>@db/natours")
	t.Setenv("DATABASE_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://natours:hunter2@db/natours", cfg.DatabaseURL)
}

func TestLoadRejectsShortSecretInProduction(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DATABASE_URL", "postgres://localhost/natours")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDays(t *testing.T) {
	t.Setenv("X_TTL", "2d")
	d, err := parseDays("X_TTL", "1h")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	t.Setenv("X_TTL", "90m")
	d, err = parseDays("X_TTL", "1h")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}

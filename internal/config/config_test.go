package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGINS", "LOG_LEVEL", "ENVIRONMENT", "REDIS_URL",
		"SERVE_FRONTEND", "STATIC_DIR", "HISTORY_LIMIT", "DEFAULT_POLL_DURATION",
		"SHUTDOWN_DEADLINE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.ServeFrontend)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 60, cfg.DefaultDuration)
	assert.Equal(t, 25, cfg.ShutdownDeadline)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("SERVE_FRONTEND", "true")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("DEFAULT_POLL_DURATION", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.ServeFrontend)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 120, cfg.DefaultDuration)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("DEFAULT_POLL_DURATION", "-5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 60, cfg.DefaultDuration)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_HOST", "APP_PORT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_FILE", "app.log")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "app.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHAT_DOTENV_PROBE=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CHAT_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CHAT_DOTENV_PROBE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("CACHE_LOOKUP_TIMEOUT", "")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, 100*time.Millisecond, cfg.LookupTimeout)
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "x")

	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.Equal(t, 0, cfg.DB)
}

func TestLoadEventsConfigURLFallback(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://user:pw@broker:5672/")
	t.Setenv("CHAT_EVENTS_ENABLED", "")
	t.Setenv("CHAT_EVENTS_QUEUE", "")
	t.Setenv("CHAT_EVENTS_BUFFER", "")
	t.Setenv("CHAT_EVENTS_TIMEOUT", "")

	cfg := LoadEventsConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "amqp://user:pw@broker:5672/", cfg.URL)
	assert.Equal(t, "chat.replied", cfg.Queue)
	assert.Equal(t, 256, cfg.Buffer)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

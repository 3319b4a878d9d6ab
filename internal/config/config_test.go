package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADAPTEST_DB", "ADAPTEST_ADDR", "ADAPTEST_REDIS_URL", "ADAPTEST_CORS_ORIGINS", "ADAPTEST_ATTEMPT_GRACE", "ADAPTEST_MAX_PAUSE", "ADAPTEST_SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 2*time.Minute, cfg.Policy().Grace)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADAPTEST_DB", "/tmp/x.db")
	t.Setenv("ADAPTEST_ADDR", "127.0.0.1:9000")
	t.Setenv("ADAPTEST_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ADAPTEST_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ADAPTEST_ATTEMPT_GRACE", "5m")
	t.Setenv("ADAPTEST_MAX_PAUSE", "1h")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	p := cfg.Policy()
	assert.Equal(t, 5*time.Minute, p.Grace)
	assert.Equal(t, time.Hour, p.MaxPause)
	assert.Equal(t, 24*time.Hour, p.StaleAfter)
}

func TestFromEnv_BadDuration(t *testing.T) {
	t.Setenv("ADAPTEST_MAX_PAUSE", "soon")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "ADAPTEST_MAX_PAUSE")

	t.Setenv("ADAPTEST_MAX_PAUSE", "-1m")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "negative")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADAPTEST_ADDR=:7070\n"), 0o600))
	t.Chdir(dir)
	// godotenv never overrides variables that are already set.
	t.Setenv("ADAPTEST_ADDR", "")
	os.Unsetenv("ADAPTEST_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load()
	assert.NoError(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join("/tmp/xdg", "taskhive", "taskhive.db"), cfg.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 10, cfg.ActivityLimit)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 1000, cfg.AnalyticsCap)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskhive.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
backend: postgres
database_url: postgres://localhost/taskhive
http:
  address: ":9000"
  shutdown_timeout: 3s
activity_limit: 20
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/taskhive", cfg.DatabaseURL)
	assert.Equal(t, ":9000", cfg.HTTP.Address)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 20, cfg.ActivityLimit)
	assert.Empty(t, cfg.SQLitePath)
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("TASKHIVE_SQLITE_PATH", "/tmp/x.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv("TASKHIVE_BACKEND", "mongo")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown backend")

	t.Setenv("TASKHIVE_BACKEND", "postgres")
	_, err = Load("")
	assert.ErrorContains(t, err, "database_url")
}

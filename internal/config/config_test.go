package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "listen: 0.0.0.0:9000\ndata_dir: " + dir + "\nstore:\n  driver: SQLite\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "socialsync.db"), cfg.Store.SQLitePath)
	assert.Equal(t, filepath.Join(dir, "media"), cfg.Media.Dir)
	assert.Equal(t, defaultPublishCron, cfg.PublishCron)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("SOCIALSYNC_LISTEN", ":7777")
	t.Setenv("SOCIALSYNC_DEMO", "true")
	t.Setenv("SOCIALSYNC_SESSION_TTL", "2h")
	t.Setenv("SOCIALSYNC_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("SOCIALSYNC_BASIC_AUTH_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Listen)
	assert.True(t, cfg.Demo)
	assert.False(t, cfg.HasBackend())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize()
	require.NoError(t, cfg.Validate())

	cfg.PublishCron = "not a cron"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Store.Driver = DriverPostgres
	assert.Error(t, cfg.Validate())

	cfg.Store.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Timezone = "Europe/Berlin"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loaded.Timezone)
	assert.Equal(t, "Europe/Berlin", loaded.Location().String())
}

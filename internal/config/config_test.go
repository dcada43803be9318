package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notebox/internal/config"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notebox.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: sqlite\nbackup:\n  keep: -3\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Adapter)
	assert.Equal(t, config.DefaultStore, cfg.Store)
	assert.Equal(t, config.DefaultListen, cfg.Listen)
	assert.Equal(t, config.DefaultBackupCron, cfg.Backup.Cron)
	assert.Equal(t, 0, cfg.Backup.Keep)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unterminated"), 0o600))
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestNormalize_UnknownAdapter(t *testing.T) {
	cfg := &config.Config{Adapter: "s3"}
	cfg.Normalize()
	assert.Equal(t, config.DefaultAdapter, cfg.Adapter)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebox.yaml")
	cfg := config.DefaultConfig()
	cfg.Store = "/srv/notes"
	cfg.Versioning = true
	cfg.Timezone = "America/Sao_Paulo"
	cfg.Backup.Cron = "@every 1h"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLocation(t *testing.T) {
	cfg := config.DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	cfg.Timezone = "Nowhere/Special"
	_, err = cfg.Location()
	assert.Error(t, err)
}

package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officetime/internal/platform/config"
	apperrors "officetime/internal/platform/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "nope.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "officetime.db"), cfg.Store.Path)
	assert.Equal(t, time.Second, cfg.Tracking.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.Tracking.HeartbeatEvery)
	assert.Equal(t, 20*time.Minute, cfg.Tracking.ZombieAfter)
	assert.Equal(t, config.OracleNmcli, cfg.Network.Oracle)
	assert.Equal(t, filepath.Join(dir, "daemon.pid"), cfg.PIDPath())
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  driver: file
tracking:
  tick_interval: 2s
  zombie_after: 30m
network:
  oracle: static
  static_on_wifi: true
  static_ssid: Office
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("OFFICETIME_LOG_LEVEL", "warn")
	t.Setenv("OFFICETIME_NETWORK_STATIC_SSID", "Guest")

	cfg, err := config.Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, config.StoreFile, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "store.json"), cfg.Store.Path)
	assert.Equal(t, 2*time.Second, cfg.Tracking.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.Tracking.ZombieAfter)
	assert.True(t, cfg.Network.StaticOnWifi)
	assert.Equal(t, "Guest", cfg.Network.StaticSSID)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o644))

	_, err := config.Load(path, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestValidateZombieMustExceedHeartbeat(t *testing.T) {
	t.Parallel()
	cfg := config.Default(t.TempDir())
	cfg.Tracking.ZombieAfter = time.Second
	require.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidInput)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, dir, func(c config.Config) {
			select {
			case changes <- c:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	// A truncating write may surface an intermediate reload first.
	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case cfg := <-changes:
			reloaded = cfg.Logging.Level == "debug"
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
	cancel()
	require.NoError(t, <-done)
}

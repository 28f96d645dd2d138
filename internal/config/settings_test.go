package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mareasperez/pg-backup-restore/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings("", logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "./backups", settings.Backup.Directory)
	assert.Equal(t, "2006-01-02_15-04-05", settings.Backup.TimestampFormat)
	assert.Equal(t, time.Second, settings.Backup.PollInterval)
	assert.False(t, settings.Backup.Compress)
	assert.Equal(t, 5*time.Second, settings.Restore.PollInterval)
	assert.Equal(t, 2*time.Hour, settings.Restore.Timeout)
	assert.Equal(t, "./backups/operations.log", settings.Log.Path)
	assert.Equal(t, "./secrets", settings.Secrets.Directory)
	assert.Empty(t, settings.Vault.Address)
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backup:
  directory: /srv/backups
  compress: true
restore:
  timeout: 30m
log:
  path: /var/log/pgbr.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "/srv/backups", settings.Backup.Directory)
	assert.True(t, settings.Backup.Compress)
	assert.Equal(t, 30*time.Minute, settings.Restore.Timeout)
	assert.Equal(t, "/var/log/pgbr.log", settings.Log.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5*time.Second, settings.Restore.PollInterval)
}

func TestLoadSettingsEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backup:
  directory: /srv/backups
log:
  path: /var/log/pgbr.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(EnvBackupDir, "/mnt/override")
	t.Setenv(EnvLogPath, "/tmp/override.log")

	settings, err := LoadSettings(path, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "/mnt/override", settings.Backup.Directory)
	assert.Equal(t, "/tmp/override.log", settings.Log.Path)
}

func TestLoadSettingsMissingExplicitFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"), logger.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadSettingsIgnoresCredentialKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
password: topsecret
backup:
  directory: /srv/backups
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "/srv/backups", settings.Backup.Directory)
}

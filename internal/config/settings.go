package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mareasperez/pg-backup-restore/internal/logger"
	"github.com/spf13/viper"
)

// ErrConfiguration indicates a missing or unreadable configuration file,
// or a required field left empty after resolution.
var ErrConfiguration = errors.New("configuration error")

// Environment variables recognized as runtime overrides. They always win
// over the settings file, which wins over built-in defaults.
const (
	EnvBackupDir   = "PGBR_BACKUP_DIR"
	EnvLogPath     = "PGBR_LOG_PATH"
	EnvSecretsFile = "PGBR_ENV_FILE"
)

// GlobalSettings holds process-wide, non-secret configuration. It is read
// once at startup and treated as read-only afterwards. Credentials are never
// read from this file.
type GlobalSettings struct {
	Backup  BackupSettings  `mapstructure:"backup"`
	Restore RestoreSettings `mapstructure:"restore"`
	Log     LogSettings     `mapstructure:"log"`
	Secrets SecretsSettings `mapstructure:"secrets"`
	Vault   VaultSettings   `mapstructure:"vault"`
}

// BackupSettings contains global backup options.
type BackupSettings struct {
	Directory       string        `mapstructure:"directory"`
	TimestampFormat string        `mapstructure:"timestamp_format"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Compress        bool          `mapstructure:"compress"`
}

// RestoreSettings contains restore supervision options.
type RestoreSettings struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LogSettings locates the shared log file.
type LogSettings struct {
	Path string `mapstructure:"path"`
}

// SecretsSettings locates the per-environment secret files.
type SecretsSettings struct {
	Directory string `mapstructure:"directory"`
}

// VaultSettings holds connection settings for the optional Vault credential
// source. Empty address disables it.
type VaultSettings struct {
	Address string `mapstructure:"address"`
}

// credentialKeys are never honored in the shared settings file; the file is
// non-secret and possibly version-controlled.
var credentialKeys = []string{"password", "db_password", "credential"}

// LoadSettings reads the shared settings file (YAML) and applies the
// precedence env override > file > default. A missing file at the default
// location is fine; an explicitly named file that cannot be read is not.
func LoadSettings(path string, log logger.Logger) (GlobalSettings, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("backup.directory", "./backups")
	v.SetDefault("backup.timestamp_format", "2006-01-02_15-04-05")
	v.SetDefault("backup.poll_interval", time.Second)
	v.SetDefault("backup.compress", false)
	v.SetDefault("restore.poll_interval", 5*time.Second)
	v.SetDefault("restore.timeout", 2*time.Hour)
	v.SetDefault("log.path", "./backups/operations.log")
	v.SetDefault("secrets.directory", "./secrets")
	v.SetDefault("vault.address", "")

	_ = v.BindEnv("backup.directory", EnvBackupDir)
	_ = v.BindEnv("log.path", EnvLogPath)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return GlobalSettings{}, fmt.Errorf("%w: read settings file %s: %v", ErrConfiguration, path, err)
		}
		log.Info("settings loaded", "path", path)
	} else if _, err := os.Stat("./config.yaml"); err == nil {
		v.SetConfigFile("./config.yaml")
		if err := v.ReadInConfig(); err != nil {
			return GlobalSettings{}, fmt.Errorf("%w: read settings file ./config.yaml: %v", ErrConfiguration, err)
		}
		log.Info("settings loaded", "path", "./config.yaml")
	}

	for _, key := range credentialKeys {
		if v.InConfig(key) || v.InConfig("backup."+key) {
			log.Warn("settings file contains a credential-like key; ignoring it", "key", key)
		}
	}

	var settings GlobalSettings
	if err := v.Unmarshal(&settings); err != nil {
		return GlobalSettings{}, fmt.Errorf("%w: unmarshal settings: %v", ErrConfiguration, err)
	}
	return settings, nil
}

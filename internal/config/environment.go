package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mareasperez/pg-backup-restore/internal/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Environment is a fully-specified connection target. Every destructive or
// data-moving operation resolves to exactly one valid Environment first.
type Environment struct {
	Name      string `mapstructure:"-"`
	Host      string `mapstructure:"db_host"`
	Port      string `mapstructure:"db_port"`
	Database  string `mapstructure:"db_name"`
	Username  string `mapstructure:"db_user"`
	Password  string `mapstructure:"db_password"`
	VaultPath string `mapstructure:"db_password_vault_path"`
}

// CredentialSource fetches a credential from a secret backend, keyed by a
// backend-specific path. Vault implements this.
type CredentialSource interface {
	Password(ctx context.Context, path string) (string, error)
}

// Masked renders the connection target for diagnostics with the credential
// hidden. The full credential must never be echoed.
func (e Environment) Masked() string {
	return fmt.Sprintf("%s@%s:%s/%s password=****", e.Username, e.Host, e.Port, e.Database)
}

// Validate fails fast when any required field is empty.
func (e Environment) Validate() error {
	missing := ""
	switch {
	case e.Host == "":
		missing = "db_host"
	case e.Username == "":
		missing = "db_user"
	case e.Password == "":
		missing = "db_password"
	case e.Database == "":
		missing = "db_name"
	}
	if missing != "" {
		return fmt.Errorf("%w: environment %q missing required field %s", ErrConfiguration, e.Name, missing)
	}
	return nil
}

// SecretFilePath returns the secret file that backs the named environment,
// honoring the per-invocation override variable.
func SecretFilePath(name string, settings GlobalSettings) string {
	if override := os.Getenv(EnvSecretsFile); override != "" {
		return override
	}
	return filepath.Join(settings.Secrets.Directory, name+".env")
}

// ResolveEnvironment loads the per-environment secret file (key=value lines)
// and returns a validated Environment. Credentials only ever come from the
// secret file or the optional CredentialSource, never from the shared
// settings file. The path used is logged; its contents are not.
func ResolveEnvironment(
	ctx context.Context,
	name string,
	settings GlobalSettings,
	creds CredentialSource,
	log logger.Logger,
) (Environment, error) {
	path := SecretFilePath(name, settings)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return Environment{}, fmt.Errorf("%w: read secret file %s: %v", ErrConfiguration, path, err)
	}

	env := Environment{Name: name}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &env,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Environment{}, fmt.Errorf("%w: build secret decoder: %v", ErrConfiguration, err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Environment{}, fmt.Errorf("%w: decode secret file %s: %v", ErrConfiguration, path, err)
	}

	if env.Port == "" {
		env.Port = "5432"
	}

	if env.Password == "" && env.VaultPath != "" {
		if creds == nil {
			return Environment{}, fmt.Errorf(
				"%w: environment %q references a vault path but no vault address is configured",
				ErrConfiguration, name)
		}
		password, err := creds.Password(ctx, env.VaultPath)
		if err != nil {
			return Environment{}, fmt.Errorf("%w: fetch credential for %q: %v", ErrConfiguration, name, err)
		}
		env.Password = password
	}

	if err := env.Validate(); err != nil {
		return Environment{}, err
	}

	log.Info("environment resolved", "environment", name, "secret_file", path, "target", env.Masked())
	return env, nil
}

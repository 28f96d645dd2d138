package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
	"github.com/mareasperez/pg-backup-restore/internal/operations"
	"github.com/mareasperez/pg-backup-restore/internal/vault"
	"github.com/spf13/cobra"
)

var (
	// SettingsFile is the path to the shared, non-secret settings file.
	SettingsFile string
	// SecretsDir overrides where per-environment secret files live.
	SecretsDir string

	settings config.GlobalSettings
	log      logger.Logger

	rootCmd = &cobra.Command{
		Use:   "pg-backup-restore",
		Short: "Backup, restore, sync and drop PostgreSQL environments",
		Long: `pg-backup-restore orchestrates pg_dump and pg_restore against named
database environments, keeping a catalog of timestamped backup artifacts and
gating every destructive operation behind explicit confirmation.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// setup resolves global settings and opens the shared log before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	bootstrap := logger.Nop()

	loaded, err := config.LoadSettings(SettingsFile, bootstrap)
	if err != nil {
		return err
	}
	if SecretsDir != "" {
		loaded.Secrets.Directory = SecretsDir
	}
	settings = loaded

	log, err = logger.Init(settings.Log.Path)
	if err != nil {
		return err
	}
	return nil
}

// resolveEnv loads one environment's secret configuration, wiring the Vault
// credential source when an address is configured.
func resolveEnv(ctx context.Context, name string) (config.Environment, error) {
	var creds config.CredentialSource
	if settings.Vault.Address != "" {
		client, err := vault.NewClient(settings.Vault.Address)
		if err != nil {
			return config.Environment{}, err
		}
		creds = client
	}
	return config.ResolveEnvironment(ctx, name, settings, creds, log)
}

func newOperator() *operations.Operator {
	return operations.NewOperator(settings, operations.WithLogger(log))
}

// Execute runs the root command. Exit status is zero on success and
// non-zero on any fatal error category.
func Execute() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error("command failed", "error", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		logger.Cleanup()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&SettingsFile, "settings", "c", "", "path to the shared settings file (YAML)")
	rootCmd.PersistentFlags().
		StringVar(&SecretsDir, "secrets-dir", "", "directory holding per-environment secret files")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(listCmd)
}

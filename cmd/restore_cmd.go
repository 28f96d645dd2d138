package cmd

import (
	"github.com/mareasperez/pg-backup-restore/internal/operations"
	"github.com/spf13/cobra"
)

var (
	restoreSource string
	restoreLatest bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <target>",
	Short: "Restore a backup artifact into the target environment",
	Long: `Restore replaces the target environment's data from a backup artifact.
Interactively it lists the source's artifacts for selection and demands both
the artifact affirmation and the typed database name. With --latest the most
recent artifact is used unattended, skipping confirmation entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveEnv(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		opts := operations.RestoreOptions{
			Source: restoreSource,
			Latest: restoreLatest,
			Policy: operations.PolicyInteractive,
		}
		if restoreLatest {
			opts.Policy = operations.PolicyUnattended
		}
		return newOperator().Restore(cmd.Context(), target, opts)
	},
}

func init() {
	restoreCmd.Flags().
		StringVarP(&restoreSource, "source", "s", "", "environment whose artifacts to restore (defaults to the target)")
	restoreCmd.Flags().
		BoolVar(&restoreLatest, "latest", false, "use the most recent artifact without asking")
}

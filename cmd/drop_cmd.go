package cmd

import (
	"github.com/mareasperez/pg-backup-restore/internal/operations"
	"github.com/spf13/cobra"
)

var (
	dropYes        bool
	dropSkipBackup bool
)

var dropCmd = &cobra.Command{
	Use:   "drop <environment>",
	Short: "Irreversibly reset the environment's primary schema",
	Long: `Drop resets the public schema of the environment's database. The typed
database-name confirmation is required unless --yes is given; an automatic
backup is taken first unless --skip-backup is also given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := resolveEnv(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return newOperator().Drop(cmd.Context(), env, operations.DropOptions{
			Yes:        dropYes,
			SkipBackup: dropSkipBackup,
		})
	},
}

func init() {
	dropCmd.Flags().BoolVar(&dropYes, "yes", false, "skip the typed confirmation")
	dropCmd.Flags().BoolVar(&dropSkipBackup, "skip-backup", false, "skip the automatic pre-drop backup (dangerous)")
}

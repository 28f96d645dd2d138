package cmd

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <environment>",
	Short: "Back up one environment into a new timestamped artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := resolveEnv(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = newOperator().Backup(cmd.Context(), env)
		return err
	},
}

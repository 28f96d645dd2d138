package cmd

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <source> <target>",
	Short: "Back up the source, then overwrite the target from that backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := resolveEnv(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		target, err := resolveEnv(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		return newOperator().Sync(cmd.Context(), source, target)
	},
}

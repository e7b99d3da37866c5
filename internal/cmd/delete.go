package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/runner"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an item from queue or failed list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireInitialized(env); err != nil {
			return err
		}
		return runner.Delete(env, args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

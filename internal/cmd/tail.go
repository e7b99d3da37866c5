package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/runner"
	"github.com/steveyegge/jjq/internal/tail"
)

var (
	tailAll    bool
	tailFollow bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "View check command output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return tail.Tail(runner.LogPath(env.Root), env.Locks, tailAll, tailFollow)
	},
}

func init() {
	tailCmd.Flags().BoolVar(&tailAll, "all", false, "Show the entire log, not just the last lines")
	tailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "Follow new output until the run completes")
	rootCmd.AddCommand(tailCmd)
}

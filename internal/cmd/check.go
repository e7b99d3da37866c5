package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/runner"
)

var (
	checkRev     string
	checkVerbose bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the check command against a revision without queue processing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return runner.CheckRevision(env, checkRev, checkVerbose)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkRev, "rev", "@", "Revset to check")
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Show workspace path, shell, and environment before running")
	rootCmd.AddCommand(checkCmd)
}

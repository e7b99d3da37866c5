package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/runner"
)

var (
	runAll           bool
	runStopOnFailure bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the next item(s) in the queue",
	Long: `Process the next queue item: build the landed revision in a sandbox
workspace, run the check command, and advance trunk if it passes.

With --all, keep processing until the queue drains or --stop-on-failure
triggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireInitialized(env); err != nil {
			return err
		}
		return runner.Run(env, runAll, runStopOnFailure)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Process all queued items until empty or failure")
	runCmd.Flags().BoolVar(&runStopOnFailure, "stop-on-failure", false, "Stop processing on first failure (only with --all)")
	rootCmd.AddCommand(runCmd)
}

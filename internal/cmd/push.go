package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/queue"
)

var pushCmd = &cobra.Command{
	Use:   "push <revset>",
	Short: "Queue a revision for merging to trunk",
	Long: `Queue a revision for merging to trunk.

The revset must resolve to exactly one revision. Pushing a commit that
is already queued is rejected; pushing a new commit for an already
queued or failed change replaces the stale entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return queue.Push(env.JJ, env.Locks, env.Store, args[0])
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

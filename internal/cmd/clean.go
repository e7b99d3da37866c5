package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/runner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove jjq workspaces",
	Long: `Forget all jjq sandbox workspaces and delete their directories.

Queue and failed bookmarks are never touched; clean only collects
workspace garbage left by failed or interrupted runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return runner.Clean(env)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

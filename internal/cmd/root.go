// Package cmd wires the jjq subcommands. Each command file registers
// itself on the root command in init(); the queue logic lives in the
// internal packages, not here.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/jj"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/runner"
)

var rootCmd = &cobra.Command{
	Use:           "jjq",
	Short:         "Local merge queue for jj",
	Long:          "jjq queues candidate revisions and lands them on trunk one at a time,\nrunning your check command against each hypothetical landed state.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return jj.New().VerifyRepo()
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// newEnv builds the repository-scoped collaborators shared by every
// command.
func newEnv() (runner.Env, error) {
	c := jj.New()
	root, err := c.Root()
	if err != nil {
		return runner.Env{}, err
	}
	return runner.Env{
		JJ:    c,
		Locks: lock.NewManager(root),
		Store: config.NewStore(c),
		Root:  root,
	}, nil
}

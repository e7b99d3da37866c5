package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/runner"
	"github.com/steveyegge/jjq/internal/style"
)

var configCmd = &cobra.Command{
	Use:   "config [<key> [<value>]]",
	Short: "Get or set configuration",
	Long: `Get or set jjq configuration stored on the metadata branch.

Keys: trunk_bookmark, check_command, strategy.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		switch len(args) {
		case 0:
			return configShowAll(env)
		case 1:
			return configGet(env, args[0])
		default:
			return configSet(env, args[0], args[1])
		}
	},
}

func withConfigLock(env runner.Env, fn func() error) error {
	guard, err := env.Locks.Acquire(lock.Config)
	if err != nil {
		return err
	}
	if guard == nil {
		return fmt.Errorf("config lock unavailable")
	}
	defer guard.Release()
	return fn()
}

func configShowAll(env runner.Env) error {
	if err := requireInitialized(env); err != nil {
		return err
	}
	return withConfigLock(env, func() error {
		trunk, err := env.Store.TrunkBookmark()
		if err != nil {
			return err
		}
		check, ok, err := env.Store.CheckCommand()
		if err != nil {
			return err
		}
		if !ok {
			check = "(not set)"
		}
		strategy, err := env.Store.Strategy()
		if err != nil {
			return err
		}
		fmt.Printf("trunk_bookmark = %s\n", trunk)
		fmt.Printf("check_command = %s\n", check)
		fmt.Printf("strategy = %s\n", strategy)
		return nil
	})
}

func configGet(env runner.Env, key string) error {
	if !config.IsValidKey(key) {
		return exitcode.New(exitcode.Usage, "unknown config key: %s\nvalid keys: trunk_bookmark, check_command, strategy", key)
	}

	initialized, err := env.Store.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		// Uninitialized repos still have well-defined defaults.
		switch key {
		case config.KeyTrunkBookmark:
			fmt.Println(config.DefaultTrunkBookmark)
		case config.KeyCheckCommand:
			fmt.Println()
		case config.KeyStrategy:
			fmt.Println(config.DefaultStrategy)
		}
		return nil
	}

	return withConfigLock(env, func() error {
		switch key {
		case config.KeyTrunkBookmark:
			trunk, err := env.Store.TrunkBookmark()
			if err != nil {
				return err
			}
			fmt.Println(trunk)
		case config.KeyCheckCommand:
			check, _, err := env.Store.CheckCommand()
			if err != nil {
				return err
			}
			fmt.Println(check)
		case config.KeyStrategy:
			strategy, err := env.Store.Strategy()
			if err != nil {
				return err
			}
			fmt.Println(strategy)
		}
		return nil
	})
}

func configSet(env runner.Env, key, value string) error {
	if err := requireInitialized(env); err != nil {
		return err
	}
	return withConfigLock(env, func() error {
		if err := env.Store.Set(key, value); err != nil {
			if !config.IsValidKey(key) {
				return exitcode.New(exitcode.Usage, "%s", err.Error())
			}
			return err
		}
		style.Out("%s = %s", key, value)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/runner"
	"github.com/steveyegge/jjq/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return doctor(env)
	},
}

func doctor(env runner.Env) error {
	fmt.Println("jjq doctor:")

	var fails, warns int

	// The root command already verified the repo.
	printCheck("ok", "jj repository")

	initialized, err := env.Store.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		printCheck("ok", "jjq initialized")
	} else {
		printCheck("FAIL", "jjq not initialized (run 'jjq init')")
		fails++
	}

	trunk, err := env.Store.TrunkBookmark()
	if err != nil {
		return err
	}
	if exists, err := env.JJ.BookmarkExists(trunk); err != nil {
		return err
	} else if exists {
		printCheck("ok", fmt.Sprintf("trunk bookmark '%s' exists", trunk))
	} else {
		printCheck("FAIL", fmt.Sprintf("trunk bookmark '%s' does not exist", trunk))
		fails++
	}

	checkConfigured := false
	if initialized {
		_, checkConfigured, err = env.Store.CheckCommand()
		if err != nil {
			return err
		}
	}
	if checkConfigured {
		printCheck("ok", "check command configured")
	} else {
		printCheck("FAIL", "check command not configured")
		printHint("to fix: jjq config check_command '<command>'")
		fails++
	}

	if initialized {
		if strategy, err := env.Store.Strategy(); err != nil {
			printCheck("FAIL", fmt.Sprintf("invalid strategy: %v", err))
			fails++
		} else {
			printCheck("ok", fmt.Sprintf("strategy: %s", strategy))
		}
	}

	if current, ok, err := env.JJ.ConfigGet("revsets.log"); err == nil && ok &&
		strings.Contains(current, config.MetaBookmark) {
		printCheck("ok", "jj log hides jjq metadata")
	} else {
		printCheck("WARN", "jj log does not hide jjq metadata")
		printHint(fmt.Sprintf("to fix: jj config set --repo revsets.log '~ ::%s'", config.MetaBookmark))
		warns++
	}

	for _, name := range []string{lock.Run, lock.ID} {
		held, err := env.Locks.IsHeld(name)
		if err != nil {
			return err
		}
		if held {
			printCheck("WARN", fmt.Sprintf("%s lock held by another process", name))
			warns++
		} else {
			printCheck("ok", fmt.Sprintf("%s lock is free", name))
		}
	}

	workspaces, err := env.JJ.Workspaces()
	if err != nil {
		return err
	}
	orphaned := 0
	for _, ws := range workspaces {
		if runner.IsJJQWorkspace(ws.Name) {
			orphaned++
		}
	}
	if orphaned == 0 {
		printCheck("ok", "no orphaned workspaces")
	} else {
		printCheck("WARN", fmt.Sprintf("%d orphaned workspace(s) found", orphaned))
		printHint("to fix: jjq clean")
		warns++
	}

	fmt.Println()
	if fails == 0 && warns == 0 {
		fmt.Println("all checks passed")
	} else {
		var parts []string
		if fails > 0 {
			parts = append(parts, fmt.Sprintf("%d failure(s)", fails))
		}
		if warns > 0 {
			parts = append(parts, fmt.Sprintf("%d warning(s)", warns))
		}
		fmt.Println(strings.Join(parts, ", "))
	}

	if fails > 0 {
		return exitcode.New(exitcode.Conflict, "doctor found issues")
	}
	return nil
}

func printCheck(status, msg string) {
	switch status {
	case "ok":
		fmt.Printf("   %s  %s\n", style.Success.Render("ok"), msg)
	case "WARN":
		fmt.Printf(" %s  %s\n", style.Warning.Render("WARN"), msg)
	case "FAIL":
		fmt.Printf(" %s  %s\n", style.Error.Render("FAIL"), msg)
	}
}

func printHint(msg string) {
	fmt.Printf("       %s\n", style.Dim.Render(msg))
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/jjq/internal/config"
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/runner"
	"github.com/steveyegge/jjq/internal/style"
)

var (
	initTrunk    string
	initCheck    string
	initStrategy string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize jjq in this repository",
	Long: `Initialize jjq: create the metadata branch, choose the trunk bookmark
and check command, and configure jj to hide jjq metadata from 'jj log'.

Without flags, an interactive wizard asks for the values. Defaults may
also come from a .jjq.toml file at the repository root. In
non-interactive mode --trunk and --check are required.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}

	if initialized, err := env.Store.IsInitialized(); err != nil {
		return err
	} else if initialized {
		return exitcode.New(exitcode.Usage, "jjq is already initialized. Use 'jjq config' to change settings.")
	}

	fileDefaults, err := config.LoadInitDefaults(env.Root)
	if err != nil {
		return err
	}
	trunk := firstNonEmpty(initTrunk, fileDefaults.Trunk)
	check := firstNonEmpty(initCheck, fileDefaults.CheckCommand)
	strategyValue := firstNonEmpty(initStrategy, fileDefaults.Strategy, string(config.StrategyRebase))

	fmt.Println("Initializing jjq in this repository.")
	fmt.Println()

	isTTY := term.IsTerminal(int(os.Stdin.Fd()))
	if !isTTY && (trunk == "" || check == "") {
		return exitcode.New(exitcode.Usage, "--trunk and --check are required in non-interactive mode.")
	}

	in := bufio.NewReader(os.Stdin)

	if trunk == "" {
		trunk, err = promptTrunk(env, in)
		if err != nil {
			return err
		}
	}

	if exists, err := env.JJ.BookmarkExists(trunk); err != nil {
		return err
	} else if !exists {
		if !isTTY {
			return exitcode.New(exitcode.Usage, "trunk bookmark '%s' does not exist.", trunk)
		}
		if err := offerCreateTrunk(env, in, trunk); err != nil {
			return err
		}
	}

	if check == "" {
		check, err = prompt(in, "Check command", "",
			"A check command is required (e.g., 'make test', 'go test ./...').")
		if err != nil {
			return err
		}
	}

	strategy, err := config.ParseStrategy(strategyValue)
	if err != nil {
		return exitcode.New(exitcode.Usage, "%s", err.Error())
	}

	if err := env.Store.Initialize(); err != nil {
		return err
	}
	if err := env.Store.Set(config.KeyTrunkBookmark, trunk); err != nil {
		return err
	}
	if err := env.Store.Set(config.KeyCheckCommand, check); err != nil {
		return err
	}
	if err := env.Store.Set(config.KeyStrategy, string(strategy)); err != nil {
		return err
	}

	if changed, err := env.Store.SetupLogFilter(); err != nil {
		return err
	} else if changed {
		style.Out("configured jj to hide jjq metadata from 'jj log'")
	}

	fmt.Println()
	fmt.Println("Initialized jjq:")
	fmt.Printf("  trunk_bookmark = %s\n", trunk)
	fmt.Printf("  check_command  = %s\n", check)
	fmt.Printf("  strategy       = %s\n", strategy)
	fmt.Println()

	fmt.Println("Running doctor...")
	if err := doctor(env); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Ready to go! Queue revisions with 'jjq push <revset>'.")
	return nil
}

func promptTrunk(env runner.Env, in *bufio.Reader) (string, error) {
	def := ""
	if bookmarks, err := env.JJ.Bookmarks(); err == nil {
		for _, candidate := range []string{"main", "master"} {
			for _, b := range bookmarks {
				if b == candidate {
					def = candidate
					break
				}
			}
			if def != "" {
				break
			}
		}
	}
	return prompt(in, "Trunk bookmark", def, "")
}

func offerCreateTrunk(env runner.Env, in *bufio.Reader, trunk string) error {
	fmt.Printf("Bookmark '%s' does not exist.\n", trunk)
	fmt.Println("  1) Create it at the parent revision (@-)")
	fmt.Println("  2) Create it at a different revset")
	fmt.Println("  3) Exit")
	choice, err := promptChoice(in, "Choice", 3)
	if err != nil {
		return err
	}

	var rev string
	switch choice {
	case 1:
		rev = "@-"
	case 2:
		rev, err = prompt(in, "Revset", "", "A revset is required (e.g., '@-', 'main', a change ID).")
		if err != nil {
			return err
		}
	default:
		return exitcode.New(exitcode.Usage, "trunk bookmark '%s' does not exist.", trunk)
	}

	if err := env.JJ.BookmarkCreate(trunk, rev); err != nil {
		return err
	}
	fmt.Printf("Created bookmark '%s' at '%s'.\n", trunk, rev)
	return nil
}

// prompt asks for a value, looping until non-empty unless a default is
// offered.
func prompt(in *bufio.Reader, label, def, emptyHint string) (string, error) {
	for {
		if def != "" {
			fmt.Printf("%s [%s]: ", label, def)
		} else {
			fmt.Printf("%s: ", label)
		}
		line, err := in.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if def != "" {
			return def, nil
		}
		if emptyHint != "" {
			fmt.Println(emptyHint)
		}
	}
}

// promptChoice asks for a numbered choice in [1, max], looping until
// valid.
func promptChoice(in *bufio.Reader, label string, max int) (int, error) {
	for {
		fmt.Printf("%s [1-%d]: ", label, max)
		line, err := in.ReadString('\n')
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= max {
			return n, nil
		}
		fmt.Printf("Please enter a number between 1 and %d.\n", max)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	initCmd.Flags().StringVar(&initTrunk, "trunk", "", "Trunk bookmark name")
	initCmd.Flags().StringVar(&initCheck, "check", "", "Check command to run against landed revisions")
	initCmd.Flags().StringVar(&initStrategy, "strategy", "", "Landing strategy: merge or rebase (default rebase)")
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/runner"
)

// requireInitialized fails USAGE unless the metadata branch exists.
// Initialization is always explicit; no command creates it implicitly.
func requireInitialized(env runner.Env) error {
	initialized, err := env.Store.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		return exitcode.New(exitcode.Usage, "jjq is not initialized. Run 'jjq init' first.")
	}
	return nil
}

// jjq is a local merge queue for jj (Jujutsu). Candidates are queued
// with push and landed on trunk one at a time by run, gated on a
// configured check command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/jjq/internal/cmd"
	"github.com/steveyegge/jjq/internal/exitcode"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var xe *exitcode.Error
		if errors.As(err, &xe) {
			fmt.Fprintf(os.Stderr, "jjq: %s\n", xe.Message)
			os.Exit(xe.Code)
		}
		fmt.Fprintf(os.Stderr, "jjq: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jjq/internal/exitcode"
	"github.com/steveyegge/jjq/internal/queue"
	"github.com/steveyegge/jjq/internal/status"
	"github.com/steveyegge/jjq/internal/style"
)

var (
	statusJSON    bool
	statusResolve string
)

var statusCmd = &cobra.Command{
	Use:   "status [<id>]",
	Short: "Display current queue state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		proj := status.Projector{JJ: env.JJ, Locks: env.Locks}

		if len(args) > 0 || statusResolve != "" {
			if len(args) > 0 && statusResolve != "" {
				return exitcode.New(exitcode.Usage, "cannot combine an item ID with --resolve")
			}
			if err := requireInitialized(env); err != nil {
				return err
			}
			return statusSingle(proj, args, statusResolve)
		}

		if initialized, err := env.Store.IsInitialized(); err != nil {
			return err
		} else if !initialized {
			if statusJSON {
				return printJSON(status.Report{Queue: []status.QueueItem{}, Failed: []status.FailedItem{}})
			}
			style.Out("jjq not initialized. Run 'jjq init' first.")
			return nil
		}

		report, err := proj.Project()
		if err != nil {
			return err
		}
		if statusJSON {
			return printJSON(report)
		}
		renderReport(report)
		return nil
	},
}

func statusSingle(proj status.Projector, args []string, resolve string) error {
	var item any
	var queued bool

	if len(args) > 0 {
		id, err := queue.ParseSeqID(args[0])
		if err != nil {
			return exitcode.New(exitcode.Usage, "%s", err.Error())
		}
		item, queued, err = proj.Find(id)
		if err != nil {
			return err
		}
	} else {
		id, isQueued, err := proj.FindByChangeID(resolve)
		if err != nil {
			return err
		}
		queued = isQueued
		if queued {
			item, err = proj.QueueItem(id)
		} else {
			item, err = proj.FailedItem(id)
		}
		if err != nil {
			return err
		}
	}

	if statusJSON {
		return printJSON(item)
	}

	if queued {
		qi := item.(status.QueueItem)
		fmt.Printf("Queue item %d\n", qi.ID)
		fmt.Printf("  Change ID:   %s\n", qi.ChangeID)
		fmt.Printf("  Commit ID:   %s\n", qi.CommitID)
		fmt.Printf("  Description: %s\n", qi.Description)
		return nil
	}

	fi := item.(status.FailedItem)
	fmt.Printf("Failed item %d\n", fi.ID)
	fmt.Printf("  Candidate:   %s (%s)\n", fi.CandidateChangeID, fi.CandidateCommitID)
	fmt.Printf("  Description: %s\n", fi.Description)
	fmt.Printf("  Failure:     %s\n", fi.FailureReason)
	fmt.Printf("  Trunk:       %s\n", fi.TrunkCommitID)
	fmt.Printf("  Workspace:   %s\n", fi.WorkspacePath)
	fmt.Println()
	fmt.Println("To resolve:")
	fmt.Println("  1. Fix the issue and create a new revision")
	fmt.Println("  2. Run: jjq push <fixed-revset>")
	return nil
}

func renderReport(report status.Report) {
	if report.Running {
		style.Out("Run in progress")
		fmt.Println()
	}

	if len(report.Queue) == 0 && len(report.Failed) == 0 {
		style.Out("queue is empty")
		return
	}

	if len(report.Queue) > 0 {
		style.Out("Queued:")
		for _, item := range report.Queue {
			fmt.Printf("  %d: %s %s\n", item.ID, style.Bold.Render(item.ChangeID), item.Description)
		}
	}

	if len(report.Failed) > 0 {
		if len(report.Queue) > 0 {
			fmt.Println()
		}
		style.Out("Failed (recent):")
		for _, item := range report.Failed {
			fmt.Printf("  %d: %s %s %s\n",
				item.ID, style.Bold.Render(item.CandidateChangeID), item.Description,
				style.Dim.Render("("+item.FailureReason+")"))
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().StringVar(&statusResolve, "resolve", "", "Look up item by candidate change ID")
	rootCmd.AddCommand(statusCmd)
}

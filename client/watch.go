package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gammadia/furnace/client/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch STACK",
	Short: "Watch a stack operation until it settles",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		spinner := ui.NewSpinner(fmt.Sprintf("Waiting for stack '%s'", args[0]))
		startedAt := time.Now()

		var statsLineCount int

		// eraseStatsLines clears the resource list lines displayed below the
		// spinner. Must be called while holding the spinner lock.
		eraseStatsLines := func() {
			if statsLineCount == 0 {
				return
			}
			for i := 0; i < statsLineCount; i++ {
				fmt.Fprint(os.Stderr, "\n\033[2K")
			}
			fmt.Fprintf(os.Stderr, "\033[%dA", statsLineCount)
			statsLineCount = 0
		}

		// writeStatsLines prints the resource list below the spinner.
		// Must be called while holding the spinner lock.
		writeStatsLines := func(stats string) {
			if stats == "" {
				return
			}
			fmt.Fprint(os.Stderr, "\n"+stats)
			statsLineCount = strings.Count(stats, "\n") + 1
			fmt.Fprintf(os.Stderr, "\033[%dA", statsLineCount)
		}

		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			stack, err := client.GetStack(cmd.Context(), args[0])
			if err != nil {
				spinner.Lock()
				eraseStatsLines()
				spinner.Unlock()
				if errors.Is(err, errStackNotFound) {
					// The stack record disappearing is how a deletion ends.
					spinner.Success(fmt.Sprintf("Stack '%s' deleted", args[0]))
					return nil
				}
				spinner.Fail()
				return err
			}

			stats := renderResourceStats(stack.Resources, verbose)
			timestamp := renderWatchTimestamp(stack, startedAt, time.Now())

			if terminalStatus(stack.Status) {
				spinner.Lock()
				eraseStatsLines()
				spinner.Unlock()

				final := renderWatchHeader(stack, timestamp)
				if stats != "" {
					final += "\n" + stats
				}
				switch {
				case strings.HasSuffix(stack.Status, "_FAILED"):
					spinner.Fail(final)
					return fmt.Errorf("stack '%s' failed: %s", args[0], stack.StatusReason)
				case strings.HasPrefix(stack.Status, "ROLLBACK"):
					spinner.Warn(final)
					return fmt.Errorf("stack '%s' was rolled back: %s", args[0], stack.StatusReason)
				default:
					spinner.Success(final)
					return nil
				}
			}

			spinner.Lock()
			eraseStatsLines()
			spinner.Suffix = " " + renderWatchHeader(stack, timestamp)
			writeStatsLines(stats)
			spinner.Unlock()

			select {
			case <-cmd.Context().Done():
				spinner.Lock()
				eraseStatsLines()
				spinner.Unlock()
				spinner.Warn(fmt.Sprintf("Stopped watching stack '%s', the operation continues on the server", args[0]))
				return nil
			case <-ticker.C:
			}
		}
	},
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gammadia/furnace/client/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete STACK",
	Short: "Delete a stack and its resources",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		spinner := ui.NewSpinner(fmt.Sprintf("Scheduling deletion of stack '%s'", args[0]))
		if err := client.DeleteStack(cmd.Context(), args[0]); err != nil {
			spinner.Fail()
			return err
		}
		spinner.Success()

		if !lo.Must(cmd.Flags().GetBool("async")) {
			return watchCmd.RunE(cmd, []string{args[0]})
		}
		cmd.Printf(color.HiGreenString("Scheduled deletion of stack '%s'\n"), args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("async", false, "schedule the operation without watching it")
}

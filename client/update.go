package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gammadia/furnace/api"
	"github.com/gammadia/furnace/client/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update STACK TEMPLATE",
	Short: "Update a stack to match a new template",
	Args:  cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		source, format, err := readTemplate(cmd, args[1])
		if err != nil {
			return err
		}

		spinner := ui.NewSpinner(fmt.Sprintf("Scheduling update of stack '%s'", args[0]))
		_, err = client.UpdateStack(cmd.Context(), args[0], api.UpdateStackRequest{
			Template:   source,
			Format:     format,
			Parameters: parseParams(lo.Must(cmd.Flags().GetStringArray("param"))),
		})
		if err != nil {
			spinner.Fail()
			return err
		}
		spinner.Success()

		if !lo.Must(cmd.Flags().GetBool("async")) {
			return watchCmd.RunE(cmd, []string{args[0]})
		}
		cmd.Printf(color.HiGreenString("Scheduled update of stack '%s'\n"), args[0])
		return nil
	},
}

func init() {
	updateCmd.Flags().Bool("async", false, "schedule the operation without watching it")
	updateCmd.Flags().String("format", "", "template format (yaml or hcl), inferred from the file extension by default")
	updateCmd.Flags().StringArrayP("param", "p", nil, "template parameters to set")
}

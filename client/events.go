package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events STACK",
	Short: "Show a stack's event history",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := client.StackEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, event := range events {
			resource := event.Resource
			if resource == "" {
				resource = color.HiCyanString(event.Stack)
			}
			line := ""
			if event.Reason != "" {
				line = color.HiBlackString(event.Reason)
			}
			cmd.Printf("%s  %-20s  %-24s  %s\n",
				event.Timestamp.Truncate(time.Second).Format(time.DateTime),
				resource,
				statusColor(event.Status).Sprint(event.Status),
				line,
			)
		}

		return nil
	},
}

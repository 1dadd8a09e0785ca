package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stacks",
	Args:    cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		stacks, err := client.ListStacks(cmd.Context())
		if err != nil {
			return err
		}

		now := time.Now()
		for _, stack := range stacks {
			cmd.Printf("%4s  %-20s  %3d  %s\n",
				formatAge(stack.CreatedAt, now),
				statusColor(stack.Status).Sprint(stack.Status),
				len(stack.Resources),
				color.HiCyanString(stack.Name),
			)
		}

		return nil
	},
}

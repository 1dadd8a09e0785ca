package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show STACK",
	Short: "Show stack details",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := client.GetStack(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		cmd.Printf("%-12s %s\n", "Stack:", color.HiCyanString(stack.Name))
		cmd.Printf("%-12s %s\n", "Status:", statusColor(stack.Status).Sprint(stack.Status))
		if stack.StatusReason != "" {
			cmd.Printf("%-12s %s\n", "Reason:", stack.StatusReason)
		}
		cmd.Printf("%-12s %s\n", "Created:", stack.CreatedAt.Truncate(time.Second))
		cmd.Printf("%-12s %s\n", "Updated:", stack.UpdatedAt.Truncate(time.Second))

		if len(stack.Resources) > 0 {
			cmd.Println()
			cmd.Println(fmt.Sprintf("--- %s ---", color.HiWhiteString("Resources")))
			for _, res := range stack.Resources {
				cmd.Printf("%-20s  %-28s  %-18s  %s\n",
					res.Name,
					res.Type,
					statusColor(res.Status).Sprint(res.Status),
					res.PhysicalID,
				)
				if res.StatusReason != "" && verbose {
					cmd.Printf("%20s  %s\n", "", color.HiBlackString(res.StatusReason))
				}
			}
		}

		if len(stack.Outputs) > 0 {
			cmd.Println()
			cmd.Println(fmt.Sprintf("--- %s ---", color.HiWhiteString("Outputs")))
			if err := yaml.NewEncoder(cmd.OutOrStdout()).Encode(stack.Outputs); err != nil {
				return err
			}
		}

		if lo.Must(cmd.Flags().GetBool("template")) && stack.TemplateSource != "" {
			cmd.Println()
			cmd.Println(fmt.Sprintf("--- %s ---", color.HiWhiteString("Template")))
			cmd.Print(stripTemplateNoise(stack.TemplateSource))
		}

		return nil
	},
}

func init() {
	showCmd.Flags().Bool("template", false, "also print the stack's template source")
}

package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/gammadia/furnace/api"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate TEMPLATE",
	Short: "Validate a template without creating anything",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		source, format, err := readTemplate(cmd, args[0])
		if err != nil {
			return err
		}

		response, err := client.Validate(cmd.Context(), api.ValidateRequest{
			Template: source,
			Format:   format,
		})
		if err != nil {
			return err
		}

		if response.Valid {
			cmd.Println(color.HiGreenString("Template is valid"))
			return nil
		}

		for _, line := range response.Errors {
			cmd.PrintErrln(color.HiRedString("✗ " + line))
		}
		return errors.New("template is invalid")
	},
}

func init() {
	validateCmd.Flags().String("format", "", "template format (yaml or hcl), inferred from the file extension by default")
}

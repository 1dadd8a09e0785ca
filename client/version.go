package main

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version number of Furnace",

	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("furnace version %s\n", formatVersion(version, commit))

		status, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("server version %s\n", status.Version)
		return nil
	},
}

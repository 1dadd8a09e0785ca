package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Versioning information set at build time
var version, commit, repository = "dev", "n/a", "gammadia/furnace"

var client *apiClient

var verbose bool

var furnaceCmd = &cobra.Command{
	Use:   "furnace",
	Short: "Furnace orchestrates stacks of cloud resources from templates.",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		remote := lo.Must(cmd.Flags().GetString("remote"))

		host, port, _ := strings.Cut(remote, ":")
		if port == "" {
			port = "25640"
		}

		client = newAPIClient(fmt.Sprintf("%s:%s", host, port))
		return nil
	},
}

func init() {
	furnaceCmd.AddCommand(completionCmd)
	furnaceCmd.AddCommand(createCmd)
	furnaceCmd.AddCommand(deleteCmd)
	furnaceCmd.AddCommand(eventsCmd)
	furnaceCmd.AddCommand(lsCmd)
	furnaceCmd.AddCommand(selfUpdateCmd)
	furnaceCmd.AddCommand(showCmd)
	furnaceCmd.AddCommand(topCmd)
	furnaceCmd.AddCommand(updateCmd)
	furnaceCmd.AddCommand(validateCmd)
	furnaceCmd.AddCommand(versionCmd)
	furnaceCmd.AddCommand(watchCmd)

	furnaceCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	furnaceCmd.PersistentFlags().String("remote", lo.Must(lo.Coalesce(os.Getenv("FURNACE_REMOTE"), "127.0.0.1:25640")), "the server remote address")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startUpdateCheck(ctx)

	furnaceCmd.SetOut(os.Stdout)
	err := furnaceCmd.ExecuteContext(ctx)
	printUpdateNotice()
	if err != nil {
		lo.Must(fmt.Fprintln(os.Stderr, color.HiRedString(fmt.Sprint(err))))
		os.Exit(1)
	}
}

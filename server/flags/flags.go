package flags

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	LogFormat = "log-format"
	LogLevel  = "log-level"
	LogSource = "log-source"
	Listen    = "listen"

	Providers = "providers"

	Store       = "store"
	PostgresDSN = "postgres-dsn"

	ConcurrentResources = "concurrent-resources"
	PollInterval        = "poll-interval"
	ResourceTimeout     = "resource-timeout"
	RollbackOnFailure   = "rollback-on-failure"
)

func init() {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	// Furnace
	flags.String(LogFormat, "json", "log format (json, text)")
	flags.String(LogLevel, "INFO", "minimum log level")
	flags.Bool(LogSource, false, "add source code location to logs")
	flags.String(Listen, ":25640", "listening address")

	// Providers
	flags.StringSlice(Providers, []string{"docker"}, "resource providers to enable (openstack, docker)")

	// State store
	flags.String(Store, "memory", "state store to use (memory, postgres)")
	flags.String(PostgresDSN, "", "postgres connection string")

	// Engine
	flags.Int(ConcurrentResources, (runtime.NumCPU()+1)/2, "maximum resources converged in parallel per stack")
	flags.Duration(PollInterval, 5*time.Second, "how often to poll resources for completion")
	flags.Duration(ResourceTimeout, 15*time.Minute, "how long a single resource may take to settle")
	flags.Bool(RollbackOnFailure, false, "delete already-created resources when a stack create fails")

	// Init
	if err := flags.Parse(os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	viper.SetEnvPrefix("furnace")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	lo.Must0(viper.BindPFlags(flags))
}

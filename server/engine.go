package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/gammadia/furnace/provider/docker"
	"github.com/gammadia/furnace/provider/openstack"
	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/server/flags"
	"github.com/gammadia/furnace/server/log"
	stackpkg "github.com/gammadia/furnace/stack"
	"github.com/gammadia/furnace/state"
	"github.com/gammadia/furnace/state/memory"
	"github.com/gammadia/furnace/state/postgres"
)

var engine *stackpkg.Engine
var store state.Store

func createEngine() error {
	var err error
	if store, err = createStore(); err != nil {
		return fmt.Errorf("unable to create store '%s': %w", viper.GetString(flags.Store), err)
	}

	registry := resource.NewRegistry()
	providers := viper.GetStringSlice(flags.Providers)
	for _, provider := range providers {
		if err := registerProvider(registry, provider); err != nil {
			return fmt.Errorf("unable to register provider '%s': %w", provider, err)
		}
	}

	config := stackpkg.Config{
		Logger:              log.Base.With("component", "engine"),
		Store:               store,
		ConcurrentResources: viper.GetInt(flags.ConcurrentResources),
		PollInterval:        viper.GetDuration(flags.PollInterval),
		ResourceTimeout:     viper.GetDuration(flags.ResourceTimeout),
		RollbackOnFailure:   viper.GetBool(flags.RollbackOnFailure),
	}
	if err := stackpkg.Validate(config); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	if engine, err = stackpkg.New(registry, config); err != nil {
		return err
	}

	serverStatus.Providers = providers
	serverStatus.Store = viper.GetString(flags.Store)
	serverStatus.ResourceTypes = registry.Types()
	return nil
}

func createStore() (state.Store, error) {
	switch s := viper.GetString(flags.Store); s {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.Open(viper.GetString(flags.PostgresDSN))
	default:
		return nil, fmt.Errorf("unknown store")
	}
}

func registerProvider(registry *resource.Registry, provider string) error {
	switch provider {
	case "openstack":
		clients, err := openstack.NewClients()
		if err != nil {
			return err
		}
		return openstack.Register(registry, clients)

	case "docker":
		client, err := docker.NewClient()
		if err != nil {
			return err
		}
		return docker.Register(registry, client)

	default:
		return fmt.Errorf("unknown provider")
	}
}

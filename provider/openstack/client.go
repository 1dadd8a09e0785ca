// Package openstack provides resource plugins backed by the OpenStack
// networking, compute and block storage APIs.
package openstack

import (
	"fmt"
	"os"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"

	"github.com/gammadia/furnace/resource"
)

// Clients bundles the per-service API clients the plugins share.
type Clients struct {
	Network *gophercloud.ServiceClient
	Compute *gophercloud.ServiceClient
	Volume  *gophercloud.ServiceClient
}

// NewClients authenticates from the standard OS_* environment variables.
func NewClients() (*Clients, error) {
	opts, err := openstack.AuthOptionsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth options from env: %w", err)
	}
	opts.AllowReauth = true

	provider, err := openstack.AuthenticatedClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client: %w", err)
	}

	endpoint := gophercloud.EndpointOpts{Region: os.Getenv("OS_REGION_NAME")}

	network, err := openstack.NewNetworkV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get network client: %w", err)
	}
	compute, err := openstack.NewComputeV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get compute client: %w", err)
	}
	volume, err := openstack.NewBlockStorageV3(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get block storage client: %w", err)
	}

	return &Clients{Network: network, Compute: compute, Volume: volume}, nil
}

// Register wires every plugin of the provider into the registry.
func Register(registry *resource.Registry, clients *Clients) error {
	plugins := map[string]resource.Plugin{
		"openstack::network":          &networkPlugin{clients.Network},
		"openstack::subnet":           &subnetPlugin{clients.Network},
		"openstack::port":             &portPlugin{clients.Network},
		"openstack::router":           &routerPlugin{clients.Network},
		"openstack::router-interface": &routerInterfacePlugin{clients.Network},
		"openstack::floating-ip":      &floatingIPPlugin{clients.Network},
		"openstack::security-group":   &securityGroupPlugin{clients.Network},
		"openstack::keypair":          &keypairPlugin{clients.Compute},
		"openstack::server":           &serverPlugin{clients.Compute},
		"openstack::volume":           &volumePlugin{clients.Volume},
	}
	for name, plugin := range plugins {
		if err := registry.Register(name, plugin); err != nil {
			return err
		}
	}
	return nil
}

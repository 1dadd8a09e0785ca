package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

// routerInterfacePlugin attaches a subnet to a router. The physical ID is
// the port Neutron creates for the attachment; the router and subnet come
// from the persisted properties on delete.
type routerInterfacePlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*routerInterfacePlugin)(nil)

func (p *routerInterfacePlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	routerID, err := req.Properties.String("router")
	if err != nil {
		return "", err
	}
	subnetID, err := req.Properties.String("subnet")
	if err != nil {
		return "", err
	}

	info, err := routers.AddInterface(p.client, routerID, routers.AddInterfaceOpts{SubnetID: subnetID}).Extract()
	if err != nil {
		return "", err
	}
	return info.PortID, nil
}

func (p *routerInterfacePlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

func (p *routerInterfacePlugin) Delete(ctx context.Context, req resource.Request) error {
	routerID, err := req.Properties.String("router")
	if err != nil {
		return err
	}
	subnetID, err := req.Properties.String("subnet")
	if err != nil {
		return err
	}

	err = internal.Retry(ctx, 3, func() error {
		_, err := routers.RemoveInterface(p.client, routerID, routers.RemoveInterfaceOpts{SubnetID: subnetID}).Extract()
		if isNotFound(err) {
			return nil
		}
		return err
	})
	return err
}

func (p *routerInterfacePlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

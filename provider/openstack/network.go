package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

type networkPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*networkPlugin)(nil)
var _ resource.Updater = (*networkPlugin)(nil)
var _ resource.AttributeResolver = (*networkPlugin)(nil)

func (p *networkPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	adminUp := req.Properties.OptBool("admin_state_up", true)
	network, err := networks.Create(p.client, networks.CreateOpts{
		Name:         req.PhysicalName(),
		AdminStateUp: &adminUp,
	}).Extract()
	if err != nil {
		return "", err
	}
	return network.ID, nil
}

func (p *networkPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	network, err := networks.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}
	// DOWN is terminal for a network created with admin_state_up=false.
	return settled(network.Status, []string{"ACTIVE", "DOWN"}, []string{"BUILD"}, []string{"ERROR"})
}

func (p *networkPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	for _, key := range diff.Changed {
		if key != "admin_state_up" {
			return resource.ErrNeedsReplace
		}
	}
	adminUp := req.Properties.OptBool("admin_state_up", true)
	_, err := networks.Update(p.client, req.PhysicalID, networks.UpdateOpts{AdminStateUp: &adminUp}).Extract()
	return err
}

func (p *networkPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *networkPlugin) Delete(ctx context.Context, req resource.Request) error {
	// Deletion conflicts while ports finish releasing are transient.
	err := internal.Retry(ctx, 3, func() error {
		return networks.Delete(p.client, req.PhysicalID).ExtractErr()
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *networkPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := networks.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *networkPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	network, err := networks.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "name":
		return network.Name, nil
	case "status":
		return network.Status, nil
	case "subnets":
		return network.Subnets, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"

	"github.com/gammadia/furnace/resource"
)

type portPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*portPlugin)(nil)
var _ resource.Updater = (*portPlugin)(nil)
var _ resource.AttributeResolver = (*portPlugin)(nil)

func (p *portPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	networkID, err := req.Properties.String("network")
	if err != nil {
		return "", err
	}

	adminUp := true
	opts := ports.CreateOpts{
		NetworkID:    networkID,
		Name:         req.PhysicalName(),
		AdminStateUp: &adminUp,
	}
	if req.Properties.Has("security_groups") {
		groups, err := req.Properties.StringList("security_groups")
		if err != nil {
			return "", err
		}
		opts.SecurityGroups = &groups
	}
	if subnetID := req.Properties.OptString("subnet"); subnetID != "" {
		fixedIP := ports.IP{SubnetID: subnetID}
		if address := req.Properties.OptString("fixed_ip"); address != "" {
			fixedIP.IPAddress = address
		}
		opts.FixedIPs = []ports.IP{fixedIP}
	}

	port, err := ports.Create(p.client, opts).Extract()
	if err != nil {
		return "", err
	}
	return port.ID, nil
}

func (p *portPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	port, err := ports.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}
	// An unattached port stays DOWN; that is as ready as it gets.
	return settled(port.Status, []string{"ACTIVE", "DOWN"}, []string{"BUILD"}, []string{"ERROR"})
}

func (p *portPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	for _, key := range diff.Changed {
		if key != "security_groups" {
			return resource.ErrNeedsReplace
		}
	}
	groups, err := req.Properties.StringList("security_groups")
	if err != nil {
		return err
	}
	_, err = ports.Update(p.client, req.PhysicalID, ports.UpdateOpts{SecurityGroups: &groups}).Extract()
	return err
}

func (p *portPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *portPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := ports.Delete(p.client, req.PhysicalID).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *portPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := ports.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *portPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	port, err := ports.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "fixed_ip":
		if len(port.FixedIPs) == 0 {
			return nil, fmt.Errorf("port has no fixed IP yet")
		}
		return port.FixedIPs[0].IPAddress, nil
	case "mac_address":
		return port.MACAddress, nil
	case "status":
		return port.Status, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/floatingips"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

type floatingIPPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*floatingIPPlugin)(nil)
var _ resource.Updater = (*floatingIPPlugin)(nil)
var _ resource.AttributeResolver = (*floatingIPPlugin)(nil)
var _ resource.DependencyLinker = (*floatingIPPlugin)(nil)

func (p *floatingIPPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	networkID, err := req.Properties.String("network")
	if err != nil {
		return "", err
	}

	fip, err := floatingips.Create(p.client, floatingips.CreateOpts{
		FloatingNetworkID: networkID,
		PortID:            req.Properties.OptString("port"),
	}).Extract()
	if err != nil {
		return "", err
	}
	return fip.ID, nil
}

func (p *floatingIPPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	fip, err := floatingips.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}
	// DOWN just means unassociated.
	return settled(fip.Status, []string{"ACTIVE", "DOWN"}, []string{}, []string{"ERROR"})
}

func (p *floatingIPPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	for _, key := range diff.Changed {
		if key != "port" {
			return resource.ErrNeedsReplace
		}
	}
	port := req.Properties.OptString("port")
	opts := floatingips.UpdateOpts{}
	if port != "" {
		opts.PortID = &port
	}
	_, err := floatingips.Update(p.client, req.PhysicalID, opts).Extract()
	return err
}

func (p *floatingIPPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *floatingIPPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := floatingips.Delete(p.client, req.PhysicalID).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *floatingIPPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := floatingips.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *floatingIPPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	fip, err := floatingips.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "address":
		return fip.FloatingIP, nil
	case "port":
		return fip.PortID, nil
	case "status":
		return fip.Status, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

// ImplicitDeps orders floating IPs after every router and router interface
// of the template. The association only works once a route to the external
// network exists, a constraint nothing in the properties expresses.
func (p *floatingIPPlugin) ImplicitDeps(self *template.Resource, tmpl *template.Template) []string {
	var deps []string
	for name, res := range tmpl.Resources {
		switch res.Type {
		case "openstack::router", "openstack::router-interface":
			deps = append(deps, name)
		}
	}
	return deps
}

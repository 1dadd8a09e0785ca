package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/subnets"

	"github.com/gammadia/furnace/resource"
)

type subnetPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*subnetPlugin)(nil)
var _ resource.Updater = (*subnetPlugin)(nil)
var _ resource.AttributeResolver = (*subnetPlugin)(nil)

func (p *subnetPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	networkID, err := req.Properties.String("network")
	if err != nil {
		return "", err
	}
	cidr, err := req.Properties.String("cidr")
	if err != nil {
		return "", err
	}

	enableDHCP := req.Properties.OptBool("enable_dhcp", true)
	opts := subnets.CreateOpts{
		NetworkID:  networkID,
		CIDR:       cidr,
		IPVersion:  gophercloud.IPv4,
		Name:       req.PhysicalName(),
		EnableDHCP: &enableDHCP,
	}
	if gateway := req.Properties.OptString("gateway_ip"); gateway != "" {
		opts.GatewayIP = &gateway
	}
	if req.Properties.Has("dns_nameservers") {
		if opts.DNSNameservers, err = req.Properties.StringList("dns_nameservers"); err != nil {
			return "", err
		}
	}

	subnet, err := subnets.Create(p.client, opts).Extract()
	if err != nil {
		return "", err
	}
	return subnet.ID, nil
}

// Subnets carry no status; existing is being ready.
func (p *subnetPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := subnets.Get(p.client, req.PhysicalID).Extract()
	return err == nil, err
}

func (p *subnetPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	opts := subnets.UpdateOpts{}
	for _, key := range diff.Changed {
		switch key {
		case "gateway_ip":
			gateway := req.Properties.OptString("gateway_ip")
			opts.GatewayIP = &gateway
		case "enable_dhcp":
			enableDHCP := req.Properties.OptBool("enable_dhcp", true)
			opts.EnableDHCP = &enableDHCP
		case "dns_nameservers":
			servers, err := req.Properties.StringList("dns_nameservers")
			if err != nil {
				return err
			}
			opts.DNSNameservers = &servers
		default:
			return resource.ErrNeedsReplace
		}
	}
	_, err := subnets.Update(p.client, req.PhysicalID, opts).Extract()
	return err
}

func (p *subnetPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *subnetPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := subnets.Delete(p.client, req.PhysicalID).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *subnetPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := subnets.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *subnetPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	subnet, err := subnets.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "cidr":
		return subnet.CIDR, nil
	case "gateway_ip":
		return subnet.GatewayIP, nil
	case "network_id":
		return subnet.NetworkID, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

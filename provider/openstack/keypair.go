package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"

	"github.com/gammadia/furnace/resource"
)

// keypairPlugin registers an SSH public key with Nova. The physical ID is
// the keypair name.
type keypairPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*keypairPlugin)(nil)
var _ resource.AttributeResolver = (*keypairPlugin)(nil)

func (p *keypairPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	publicKey, err := req.Properties.String("public_key")
	if err != nil {
		return "", err
	}

	keypair, err := keypairs.Create(p.client, keypairs.CreateOpts{
		Name:      req.PhysicalName(),
		PublicKey: publicKey,
	}).Extract()
	if err != nil {
		return "", err
	}
	return keypair.Name, nil
}

func (p *keypairPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

func (p *keypairPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := keypairs.Delete(p.client, req.PhysicalID, nil).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *keypairPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

func (p *keypairPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	keypair, err := keypairs.Get(p.client, req.PhysicalID, nil).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "fingerprint":
		return keypair.Fingerprint, nil
	case "public_key":
		return keypair.PublicKey, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

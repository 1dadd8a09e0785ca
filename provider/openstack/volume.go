package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/blockstorage/v3/volumes"

	"github.com/gammadia/furnace/resource"
)

type volumePlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*volumePlugin)(nil)
var _ resource.Updater = (*volumePlugin)(nil)
var _ resource.AttributeResolver = (*volumePlugin)(nil)
var _ resource.Validator = (*volumePlugin)(nil)

func (p *volumePlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	volume, err := volumes.Create(p.client, volumes.CreateOpts{
		Size:        req.Properties.OptInt("size", 0),
		Name:        req.PhysicalName(),
		VolumeType:  req.Properties.OptString("volume_type"),
		Description: req.Properties.OptString("description"),
	}).Extract()
	if err != nil {
		return "", err
	}
	return volume.ID, nil
}

func (p *volumePlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	volume, err := volumes.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}
	return settled(volume.Status,
		[]string{"available", "in-use"},
		[]string{"creating", "downloading"},
		[]string{"error"})
}

func (p *volumePlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	for _, key := range diff.Changed {
		if key != "description" {
			return resource.ErrNeedsReplace
		}
	}
	description := req.Properties.OptString("description")
	_, err := volumes.Update(p.client, req.PhysicalID, volumes.UpdateOpts{Description: &description}).Extract()
	return err
}

func (p *volumePlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *volumePlugin) Delete(ctx context.Context, req resource.Request) error {
	err := volumes.Delete(p.client, req.PhysicalID, volumes.DeleteOpts{}).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *volumePlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := volumes.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *volumePlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	volume, err := volumes.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "status":
		return volume.Status, nil
	case "size":
		return volume.Size, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

func (p *volumePlugin) ValidateProperties(props resource.Properties) error {
	if size := props.OptInt("size", 0); size < 1 {
		return fmt.Errorf("size must be a positive number of gigabytes")
	}
	return nil
}

package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

type routerPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*routerPlugin)(nil)
var _ resource.Updater = (*routerPlugin)(nil)
var _ resource.AttributeResolver = (*routerPlugin)(nil)

func (p *routerPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	adminUp := req.Properties.OptBool("admin_state_up", true)
	opts := routers.CreateOpts{
		Name:         req.PhysicalName(),
		AdminStateUp: &adminUp,
	}
	if external := req.Properties.OptString("external_network"); external != "" {
		opts.GatewayInfo = &routers.GatewayInfo{NetworkID: external}
	}

	router, err := routers.Create(p.client, opts).Extract()
	if err != nil {
		return "", err
	}
	return router.ID, nil
}

func (p *routerPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	router, err := routers.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}
	return settled(router.Status,
		[]string{"ACTIVE", "DOWN"},
		[]string{"BUILD", "PENDING_CREATE", "PENDING_UPDATE"},
		[]string{"ERROR"})
}

func (p *routerPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	opts := routers.UpdateOpts{}
	for _, key := range diff.Changed {
		switch key {
		case "admin_state_up":
			adminUp := req.Properties.OptBool("admin_state_up", true)
			opts.AdminStateUp = &adminUp
		case "external_network":
			if external := req.Properties.OptString("external_network"); external != "" {
				opts.GatewayInfo = &routers.GatewayInfo{NetworkID: external}
			} else {
				opts.GatewayInfo = &routers.GatewayInfo{}
			}
		default:
			return resource.ErrNeedsReplace
		}
	}
	_, err := routers.Update(p.client, req.PhysicalID, opts).Extract()
	return err
}

func (p *routerPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return p.CheckCreateComplete(ctx, req)
}

func (p *routerPlugin) Delete(ctx context.Context, req resource.Request) error {
	// Interfaces removed by sibling resources may still be detaching.
	err := internal.Retry(ctx, 3, func() error {
		return routers.Delete(p.client, req.PhysicalID).ExtractErr()
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *routerPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := routers.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *routerPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	router, err := routers.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return nil, err
	}
	switch name {
	case "status":
		return router.Status, nil
	case "external_network":
		return router.GatewayInfo.NetworkID, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

package docker

import (
	"context"

	"github.com/docker/docker/api/types/network"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

type networkPlugin struct {
	docker Client
}

var _ resource.Plugin = (*networkPlugin)(nil)

func (p *networkPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	driver := req.Properties.OptString("driver")
	if driver == "" {
		driver = "bridge"
	}

	resp, err := internal.RetryResult(ctx, 3, func() (network.CreateResponse, error) {
		return p.docker.NetworkCreate(ctx, req.PhysicalName(), network.CreateOptions{Driver: driver})
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (p *networkPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

func (p *networkPlugin) Delete(ctx context.Context, req resource.Request) error {
	// Containers leaving the network may still be detaching.
	err := internal.Retry(ctx, 3, func() error {
		if err := p.docker.NetworkRemove(ctx, req.PhysicalID); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
	return err
}

func (p *networkPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

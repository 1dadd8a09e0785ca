package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/samber/lo"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

type containerPlugin struct {
	docker Client
}

var _ resource.Plugin = (*containerPlugin)(nil)
var _ resource.AttributeResolver = (*containerPlugin)(nil)

func (p *containerPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	imageRef, err := req.Properties.String("image")
	if err != nil {
		return "", err
	}
	if err := p.ensureImage(ctx, imageRef); err != nil {
		return "", err
	}

	var command []string
	if req.Properties.Has("command") {
		if command, err = req.Properties.StringList("command"); err != nil {
			return "", err
		}
	}
	env := lo.MapToSlice(req.Properties.StringMap("env"), func(key, value string) string {
		return fmt.Sprintf("%s=%s", key, value)
	})

	var networking *network.NetworkingConfig
	if networkID := req.Properties.OptString("network"); networkID != "" {
		networking = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				networkID: {NetworkID: networkID},
			},
		}
	}

	resp, err := internal.RetryResult(ctx, 3, func() (container.CreateResponse, error) {
		return p.docker.ContainerCreate(ctx,
			&container.Config{
				Image: imageRef,
				Cmd:   command,
				Env:   env,
			},
			&container.HostConfig{},
			networking,
			nil,
			req.PhysicalName(),
		)
	})
	if err != nil {
		return "", err
	}

	if err := p.docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return resp.ID, err
	}
	return resp.ID, nil
}

func (p *containerPlugin) ensureImage(ctx context.Context, imageRef string) error {
	images, err := p.docker.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", imageRef)),
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) > 0 {
		return nil
	}

	reader, err := p.docker.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image '%s': %w", imageRef, err)
	}
	defer reader.Close()
	// The pull only completes once the stream is drained.
	_, err = io.Copy(io.Discard, reader)
	return err
}

func (p *containerPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	inspect, err := p.docker.ContainerInspect(ctx, req.PhysicalID)
	if err != nil {
		return false, err
	}

	switch inspect.State.Status {
	case "running":
		return true, nil
	case "created", "restarting":
		return false, nil
	case "exited", "dead":
		return false, fmt.Errorf("container is %s (exit code %d): %w",
			inspect.State.Status, inspect.State.ExitCode, resource.ErrInError)
	default:
		return false, fmt.Errorf("container is %s: %w", inspect.State.Status, resource.ErrUnknownStatus)
	}
}

func (p *containerPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := p.docker.ContainerRemove(ctx, req.PhysicalID, container.RemoveOptions{
		RemoveVolumes: true,
		Force:         true,
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *containerPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := p.docker.ContainerInspect(ctx, req.PhysicalID)
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *containerPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	inspect, err := p.docker.ContainerInspect(ctx, req.PhysicalID)
	if err != nil {
		return nil, err
	}
	switch name {
	case "name":
		return inspect.Name, nil
	case "status":
		return inspect.State.Status, nil
	case "ip_address":
		for _, endpoint := range inspect.NetworkSettings.Networks {
			if endpoint.IPAddress != "" {
				return endpoint.IPAddress, nil
			}
		}
		return nil, fmt.Errorf("container has no IP address yet")
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

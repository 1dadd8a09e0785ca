// Package docker provides resource plugins backed by a Docker daemon,
// useful for local development stacks.
package docker

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/gammadia/furnace/resource"
)

// Client abstracts the Docker SDK methods the plugins use, enabling
// mock-based testing without a real Docker daemon.
type Client interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error)
	NetworkRemove(ctx context.Context, networkID string) error
}

// NewClient connects from the standard DOCKER_* environment variables.
func NewClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// Register wires every plugin of the provider into the registry.
func Register(registry *resource.Registry, docker Client) error {
	plugins := map[string]resource.Plugin{
		"docker::container": &containerPlugin{docker},
		"docker::network":   &networkPlugin{docker},
	}
	for name, plugin := range plugins {
		if err := registry.Register(name, plugin); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return client.IsErrNotFound(err)
}

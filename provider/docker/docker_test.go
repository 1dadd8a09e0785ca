package docker

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammadia/furnace/resource"
)

// mockDocker implements Client with injectable behavior per method.
type mockDocker struct {
	images []image.Summary
	pulled []string

	createFunc  func(config *container.Config, name string) (container.CreateResponse, error)
	inspectFunc func(containerID string) (types.ContainerJSON, error)
	removed     []string
}

func (m *mockDocker) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	return m.images, nil
}

func (m *mockDocker) ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error) {
	m.pulled = append(m.pulled, refStr)
	return io.NopCloser(strings.NewReader("{}")), nil
}

func (m *mockDocker) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	if m.createFunc != nil {
		return m.createFunc(config, containerName)
	}
	return container.CreateResponse{ID: "container-id"}, nil
}

func (m *mockDocker) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	return nil
}

func (m *mockDocker) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	if m.inspectFunc != nil {
		return m.inspectFunc(containerID)
	}
	return types.ContainerJSON{}, nil
}

func (m *mockDocker) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	m.removed = append(m.removed, containerID)
	return nil
}

func (m *mockDocker) NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error) {
	return network.CreateResponse{ID: "network-id"}, nil
}

func (m *mockDocker) NetworkRemove(ctx context.Context, networkID string) error {
	return nil
}

var _ Client = (*mockDocker)(nil)

func containerState(status string) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			State: &types.ContainerState{Status: status},
		},
	}
}

func TestContainerCreatePullsMissingImage(t *testing.T) {
	docker := &mockDocker{}
	plugin := &containerPlugin{docker}

	id, err := plugin.Create(context.Background(), resource.Request{
		Stack:      "demo",
		Logical:    "app",
		Properties: resource.Properties{"image": "nginx:latest"},
	})
	require.NoError(t, err)
	assert.Equal(t, "container-id", id)
	assert.Equal(t, []string{"nginx:latest"}, docker.pulled)
}

func TestContainerCreateSkipsPresentImage(t *testing.T) {
	docker := &mockDocker{images: []image.Summary{{ID: "sha256:abc"}}}
	plugin := &containerPlugin{docker}

	_, err := plugin.Create(context.Background(), resource.Request{
		Stack:      "demo",
		Logical:    "app",
		Properties: resource.Properties{"image": "nginx:latest"},
	})
	require.NoError(t, err)
	assert.Empty(t, docker.pulled)
}

func TestContainerCheckCreateComplete(t *testing.T) {
	docker := &mockDocker{}
	plugin := &containerPlugin{docker}
	req := resource.Request{PhysicalID: "container-id"}

	docker.inspectFunc = func(string) (types.ContainerJSON, error) { return containerState("running"), nil }
	done, err := plugin.CheckCreateComplete(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, done)

	docker.inspectFunc = func(string) (types.ContainerJSON, error) { return containerState("created"), nil }
	done, err = plugin.CheckCreateComplete(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, done)

	docker.inspectFunc = func(string) (types.ContainerJSON, error) { return containerState("dead"), nil }
	_, err = plugin.CheckCreateComplete(context.Background(), req)
	assert.ErrorIs(t, err, resource.ErrInError)

	docker.inspectFunc = func(string) (types.ContainerJSON, error) { return containerState("paused"), nil }
	_, err = plugin.CheckCreateComplete(context.Background(), req)
	assert.ErrorIs(t, err, resource.ErrUnknownStatus)
}

func TestContainerDelete(t *testing.T) {
	docker := &mockDocker{}
	plugin := &containerPlugin{docker}

	require.NoError(t, plugin.Delete(context.Background(), resource.Request{PhysicalID: "container-id"}))
	assert.Equal(t, []string{"container-id"}, docker.removed)
}

func TestNetworkCreate(t *testing.T) {
	docker := &mockDocker{}
	plugin := &networkPlugin{docker}

	id, err := plugin.Create(context.Background(), resource.Request{
		Stack:      "demo",
		Logical:    "net",
		Properties: resource.Properties{},
	})
	require.NoError(t, err)
	assert.Equal(t, "network-id", id)
}

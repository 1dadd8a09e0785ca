package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPlugin struct{}

func (nopPlugin) Create(ctx context.Context, req Request) (string, error) {
	return req.PhysicalName(), nil
}

func (nopPlugin) CheckCreateComplete(ctx context.Context, req Request) (bool, error) {
	return true, nil
}

func (nopPlugin) Delete(ctx context.Context, req Request) error {
	return nil
}

func (nopPlugin) CheckDeleteComplete(ctx context.Context, req Request) (bool, error) {
	return true, nil
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("test::thing", nopPlugin{}))

	plugin, ok := registry.Get("test::thing")
	assert.True(t, ok)
	assert.NotNil(t, plugin)

	_, ok = registry.Get("test::other")
	assert.False(t, ok)
}

func TestRegistryDuplicate(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("test::thing", nopPlugin{}))
	assert.ErrorContains(t, registry.Register("test::thing", nopPlugin{}), "already registered")
}

func TestRegistryTypes(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("test::b", nopPlugin{}))
	require.NoError(t, registry.Register("test::a", nopPlugin{}))

	assert.Equal(t, []string{"test::a", "test::b"}, registry.Types())
}

func TestPhysicalName(t *testing.T) {
	req := Request{Stack: "demo", Logical: "network"}

	first := req.PhysicalName()
	second := req.PhysicalName()
	assert.Contains(t, first, "demo-network-")
	assert.NotEqual(t, first, second)
}

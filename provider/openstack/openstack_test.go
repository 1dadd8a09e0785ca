package openstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

func TestSettled(t *testing.T) {
	ready := []string{"ACTIVE"}
	transient := []string{"BUILD"}
	failed := []string{"ERROR"}

	done, err := settled("ACTIVE", ready, transient, failed)
	assert.True(t, done)
	assert.NoError(t, err)

	done, err = settled("BUILD", ready, transient, failed)
	assert.False(t, done)
	assert.NoError(t, err)

	_, err = settled("ERROR", ready, transient, failed)
	assert.ErrorIs(t, err, resource.ErrInError)

	_, err = settled("MIGRATING", ready, transient, failed)
	assert.ErrorIs(t, err, resource.ErrUnknownStatus)
}

func TestSecurityGroupRuleOpts(t *testing.T) {
	opts, err := ruleOpts("group-id", map[string]any{
		"protocol": "tcp",
		"port":     22,
	})
	require.NoError(t, err)
	assert.Equal(t, "group-id", opts.SecGroupID)
	assert.Equal(t, "ingress", string(opts.Direction), "direction defaults to ingress")
	assert.Equal(t, 22, opts.PortRangeMin)
	assert.Equal(t, 22, opts.PortRangeMax)
	assert.Equal(t, "0.0.0.0/0", opts.RemoteIPPrefix)

	opts, err = ruleOpts("group-id", map[string]any{
		"direction":     "egress",
		"protocol":      "udp",
		"port_min":      1000,
		"port_max":      2000,
		"remote_prefix": "10.0.0.0/8",
	})
	require.NoError(t, err)
	assert.Equal(t, "egress", string(opts.Direction))
	assert.Equal(t, 1000, opts.PortRangeMin)
	assert.Equal(t, 2000, opts.PortRangeMax)
	assert.Equal(t, "10.0.0.0/8", opts.RemoteIPPrefix)

	_, err = ruleOpts("group-id", map[string]any{"direction": "sideways"})
	assert.ErrorContains(t, err, "invalid direction")

	_, err = ruleOpts("group-id", map[string]any{"port_min": 2000, "port_max": 1000})
	assert.ErrorContains(t, err, "inverted")
}

func TestSecurityGroupValidateProperties(t *testing.T) {
	plugin := &securityGroupPlugin{}

	assert.NoError(t, plugin.ValidateProperties(resource.Properties{
		"rules": []any{
			map[string]any{"protocol": "tcp", "port": 443},
		},
	}))
	assert.Error(t, plugin.ValidateProperties(resource.Properties{
		"rules": []any{
			map[string]any{"direction": "sideways"},
		},
	}))
}

func TestFloatingIPImplicitDeps(t *testing.T) {
	plugin := &floatingIPPlugin{}

	tmpl := &template.Template{
		Version: template.Version,
		Resources: map[string]*template.Resource{
			"router":  {Type: "openstack::router"},
			"wiring":  {Type: "openstack::router-interface"},
			"network": {Type: "openstack::network"},
			"fip":     {Type: "openstack::floating-ip"},
		},
	}

	deps := plugin.ImplicitDeps(tmpl.Resources["fip"], tmpl)
	assert.ElementsMatch(t, []string{"router", "wiring"}, deps)
}

func TestVolumeValidateProperties(t *testing.T) {
	plugin := &volumePlugin{}

	assert.NoError(t, plugin.ValidateProperties(resource.Properties{"size": 10}))
	assert.Error(t, plugin.ValidateProperties(resource.Properties{}))
	assert.Error(t, plugin.ValidateProperties(resource.Properties{"size": 0}))
}

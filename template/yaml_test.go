package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSource = `
version: "1"
parameters:
  flavor:
    type: string
    default: m1.small
  size:
    type: number
resources:
  network:
    type: openstack::network
  subnet:
    type: openstack::subnet
    deletion_policy: retain
    properties:
      network:
        get_resource: network
      cidr: 10.0.0.0/24
  server:
    type: openstack::server
    depends_on: [subnet]
    properties:
      flavor:
        get_param: flavor
      networks:
        - get_resource: network
      name:
        join: ["-", [demo, {get_param: flavor}]]
outputs:
  address:
    description: Server address
    value:
      get_attr: [server, first_address]
`

func TestParseYAML(t *testing.T) {
	tmpl, err := ParseYAML([]byte(yamlSource))
	require.NoError(t, err)

	assert.Equal(t, Version, tmpl.Version)
	assert.Len(t, tmpl.Parameters, 2)
	assert.Equal(t, ParamString, tmpl.Parameters["flavor"].Type)
	assert.Equal(t, "m1.small", tmpl.Parameters["flavor"].Default)

	require.Len(t, tmpl.Resources, 3)
	assert.Equal(t, DeletionPolicyDelete, tmpl.Resources["network"].DeletionPolicy)
	assert.Equal(t, DeletionPolicyRetain, tmpl.Resources["subnet"].DeletionPolicy)
	assert.Equal(t, []string{"subnet"}, tmpl.Resources["server"].DependsOn)

	require.Len(t, tmpl.Outputs, 1)
	assert.Equal(t, "Server address", tmpl.Outputs["address"].Description)
	assert.Equal(t, []Ref{{Resource: "server", Attr: "first_address"}}, tmpl.Outputs["address"].Value.Refs())
}

func TestParseYAMLResolvesIntrinsics(t *testing.T) {
	tmpl, err := ParseYAML([]byte(yamlSource))
	require.NoError(t, err)

	scope := fakeScope{
		params: map[string]any{"flavor": "m1.large"},
		ids:    map[string]string{"network": "net-123"},
	}
	resolved, err := tmpl.Resources["server"].Properties.Resolve(scope)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"flavor":   "m1.large",
		"networks": []any{"net-123"},
		"name":     "demo-m1.large",
	}, resolved)
}

func TestParseYAMLRefs(t *testing.T) {
	tmpl, err := ParseYAML([]byte(yamlSource))
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]Ref{{Resource: "network"}},
		tmpl.Resources["server"].Properties.Refs(),
	)
}

func TestParseYAMLInvalidSyntax(t *testing.T) {
	_, err := ParseYAML([]byte("version: [unclosed"))
	require.Error(t, err)

	var unmarshalErr UnmarshalError
	require.ErrorAs(t, err, &unmarshalErr)
	assert.NotEmpty(t, unmarshalErr.Source)
}

func TestParseYAMLInvalidTemplate(t *testing.T) {
	_, err := ParseYAML([]byte("version: \"1\"\n"))
	assert.ErrorContains(t, err, "declares no resources")
}

func TestParseYAMLBadIntrinsic(t *testing.T) {
	source := `
version: "1"
resources:
  server:
    type: openstack::server
    properties:
      address:
        get_attr: [server]
`
	_, err := ParseYAML([]byte(source))
	assert.ErrorContains(t, err, "get_attr expects [resource, attribute]")
}

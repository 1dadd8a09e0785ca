package hcltemplate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammadia/furnace/template"
)

const hclSource = `
parameter "flavor" {
  type        = string
  description = "Server flavor"
  default     = "m1.small"
}

parameter "count" {
  type = number
}

resource "openstack::network" "network" {
  admin_state_up = true
}

resource "openstack::subnet" "subnet" {
  deletion_policy = "retain"
  network         = resource.network.id
  cidr            = "10.0.0.0/24"
}

resource "openstack::server" "server" {
  depends_on = [resource.subnet]
  flavor     = param.flavor
  networks   = [resource.network.id]
  name       = "demo-${param.flavor}"
}

output "address" {
  description = "Server address"
  value       = resource.server.first_address
}
`

type fakeScope struct {
	params map[string]any
	ids    map[string]string
	attrs  map[string]any
}

func (s fakeScope) Param(name string) (any, bool) {
	v, ok := s.params[name]
	return v, ok
}

func (s fakeScope) ResourceID(name string) (string, bool) {
	id, ok := s.ids[name]
	return id, ok
}

func (s fakeScope) ResourceAttr(name, attr string) (any, error) {
	v, ok := s.attrs[name+"."+attr]
	if !ok {
		return nil, fmt.Errorf("no attribute '%s' on '%s'", attr, name)
	}
	return v, nil
}

func TestParse(t *testing.T) {
	tmpl, err := Parse("stack.hcl", []byte(hclSource))
	require.NoError(t, err)

	assert.Len(t, tmpl.Parameters, 2)
	assert.Equal(t, template.ParamString, tmpl.Parameters["flavor"].Type)
	assert.Equal(t, "m1.small", tmpl.Parameters["flavor"].Default)
	assert.Equal(t, template.ParamNumber, tmpl.Parameters["count"].Type)
	assert.Nil(t, tmpl.Parameters["count"].Default)

	require.Len(t, tmpl.Resources, 3)
	assert.Equal(t, "openstack::server", tmpl.Resources["server"].Type)
	assert.Equal(t, template.DeletionPolicyRetain, tmpl.Resources["subnet"].DeletionPolicy)
	assert.Equal(t, []string{"subnet"}, tmpl.Resources["server"].DependsOn)

	require.Len(t, tmpl.Outputs, 1)
	assert.Equal(t, []template.Ref{{Resource: "server", Attr: "first_address"}}, tmpl.Outputs["address"].Value.Refs())
}

func TestParseRefs(t *testing.T) {
	tmpl, err := Parse("stack.hcl", []byte(hclSource))
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]template.Ref{{Resource: "network"}},
		tmpl.Resources["server"].Properties.Refs(),
	)
}

func TestResolveProperties(t *testing.T) {
	tmpl, err := Parse("stack.hcl", []byte(hclSource))
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

func TestResolveOutput(t *testing.T) {
	tmpl, err := Parse("stack.hcl", []byte(hclSource))
	require.NoError(t, err)

	scope := fakeScope{
		ids:   map[string]string{"server": "srv-123"},
		attrs: map[string]any{"server.first_address": "10.0.0.5"},
	}
	value, err := tmpl.Outputs["address"].Value.Resolve(scope)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", value)
}

func TestResolveNotLive(t *testing.T) {
	tmpl, err := Parse("stack.hcl", []byte(hclSource))
	require.NoError(t, err)

	_, err = tmpl.Resources["server"].Properties.Resolve(fakeScope{
		params: map[string]any{"flavor": "m1.large"},
	})
	assert.ErrorContains(t, err, "resource 'network' is not live")
}

func TestParseDuplicateResource(t *testing.T) {
	source := `
resource "openstack::network" "net" {}
resource "openstack::subnet" "net" {}
`
	_, err := Parse("stack.hcl", []byte(source))
	assert.ErrorContains(t, err, "duplicate resource 'net'")
}

func TestParseInvalidTemplate(t *testing.T) {
	source := `
resource "openstack::server" "server" {
  network = resource.ghost.id
}
`
	_, err := Parse("stack.hcl", []byte(source))
	assert.ErrorContains(t, err, "references unknown resource 'ghost'")
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("stack.hcl", []byte("resource \"a\" {"))
	assert.Error(t, err)
}

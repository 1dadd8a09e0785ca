package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

// linkerMock contributes an ordering edge to every sibling of a fixed type.
type linkerMock struct {
	mockPlugin
	linkToType string
}

func (p *linkerMock) ImplicitDeps(self *template.Resource, tmpl *template.Template) []string {
	var deps []string
	for name, res := range tmpl.Resources {
		if res.Type == p.linkToType {
			deps = append(deps, name)
		}
	}
	return deps
}

var _ resource.DependencyLinker = (*linkerMock)(nil)

func TestBuildGraphExplicitAndImplicitEdges(t *testing.T) {
	plugin := &mockPlugin{}
	registry := singleTypeRegistry(t, "test::thing", plugin)

	tmpl := testTemplate(map[string]*template.Resource{
		"network": testResource("test::thing", nil),
		"subnet": testResource("test::thing", map[string]template.Value{
			"network": template.GetResource("network"),
		}),
		"server": testResource("test::thing", map[string]template.Value{
			"address": template.GetAttr("subnet", "cidr"),
		}, "network"),
	})

	g, err := BuildGraph(tmpl, registry)
	require.NoError(t, err)

	assert.Equal(t, []string{"network", "server", "subnet"}, g.Nodes())
	assert.Empty(t, g.Deps("network"))
	assert.Equal(t, []string{"network"}, g.Deps("subnet"), "property references are implicit edges")
	assert.Equal(t, []string{"network", "subnet"}, g.Deps("server"), "depends_on and get_attr both contribute")
}

func TestBuildGraphPluginContributedEdges(t *testing.T) {
	registry := resource.NewRegistry()
	require.NoError(t, registry.Register("test::router", &mockPlugin{}))
	require.NoError(t, registry.Register("test::floating-ip", &linkerMock{linkToType: "test::router"}))

	// No reference ties the floating IP to the router, but the plugin
	// knows traffic cannot flow before the router exists.
	tmpl := testTemplate(map[string]*template.Resource{
		"router": testResource("test::router", nil),
		"fip":    testResource("test::floating-ip", nil),
	})

	g, err := BuildGraph(tmpl, registry)
	require.NoError(t, err)
	assert.Equal(t, []string{"router"}, g.Deps("fip"))
}

func TestBuildGraphUnknownDependency(t *testing.T) {
	registry := singleTypeRegistry(t, "test::thing", &mockPlugin{})
	tmpl := testTemplate(map[string]*template.Resource{
		"server": testResource("test::thing", nil, "ghost"),
	})

	_, err := BuildGraph(tmpl, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resource 'ghost'")
}

func TestBuildGraphCycle(t *testing.T) {
	registry := singleTypeRegistry(t, "test::thing", &mockPlugin{})
	tmpl := testTemplate(map[string]*template.Resource{
		"a": testResource("test::thing", nil, "b"),
		"b": testResource("test::thing", nil, "c"),
		"c": testResource("test::thing", nil, "a"),
	})

	_, err := BuildGraph(tmpl, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestSubgraph(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
	})

	sub := g.Subgraph([]string{"a", "c"})
	assert.Equal(t, []string{"a", "c"}, sub.Nodes())
	assert.Empty(t, sub.Deps("c"), "edges through dropped nodes disappear")
}

func TestGraphFromDepsIgnoresUnknownTargets(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": {"gone"},
		"b": {"a"},
	})

	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	assert.Empty(t, g.Deps("a"))
	assert.Equal(t, []string{"a"}, g.Deps("b"))
}

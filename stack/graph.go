package stack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

// Graph is the dependency graph over a stack's resources. An edge A → B
// means "A must be processed after B". Edges come from explicit depends_on,
// implicit property references, and plugin-contributed links; overlapping
// edges collapse.
type Graph struct {
	// deps maps each node to the set of nodes it depends on.
	deps map[string]map[string]struct{}
	// dependents is the reverse adjacency.
	dependents map[string]map[string]struct{}
}

// BuildGraph constructs and validates the dependency graph of a template.
func BuildGraph(tmpl *template.Template, registry *resource.Registry) (*Graph, error) {
	g := &Graph{
		deps:       make(map[string]map[string]struct{}, len(tmpl.Resources)),
		dependents: make(map[string]map[string]struct{}, len(tmpl.Resources)),
	}
	for name := range tmpl.Resources {
		g.deps[name] = make(map[string]struct{})
		g.dependents[name] = make(map[string]struct{})
	}

	for name, res := range tmpl.Resources {
		for _, dep := range tmpl.ResourceRefs(res) {
			if _, ok := g.deps[dep]; !ok {
				return nil, fmt.Errorf("resource '%s' depends on unknown resource '%s'", name, dep)
			}
			g.link(name, dep)
		}

		// Plugins may contribute ordering edges discovered from sibling
		// declarations; unknown targets are ignored.
		if plugin, ok := registry.Get(res.Type); ok {
			if linker, ok := plugin.(resource.DependencyLinker); ok {
				for _, dep := range linker.ImplicitDeps(res, tmpl) {
					if dep == name {
						continue
					}
					if _, ok := g.deps[dep]; ok {
						g.link(name, dep)
					}
				}
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return g, nil
}

func (g *Graph) link(from, to string) {
	g.deps[from][to] = struct{}{}
	g.dependents[to][from] = struct{}{}
}

// Nodes returns all node names, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.deps))
	for name := range g.deps {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// Deps returns the dependency list of a node, sorted.
func (g *Graph) Deps(name string) []string {
	deps := make([]string, 0, len(g.deps[name]))
	for dep := range g.deps[name] {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Subgraph restricts the graph to the given nodes, keeping only edges
// between them. Used for delete walks over removed resources.
func (g *Graph) Subgraph(names []string) *Graph {
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		keep[name] = struct{}{}
	}

	sub := &Graph{
		deps:       make(map[string]map[string]struct{}, len(names)),
		dependents: make(map[string]map[string]struct{}, len(names)),
	}
	for name := range keep {
		sub.deps[name] = make(map[string]struct{})
		sub.dependents[name] = make(map[string]struct{})
	}
	for name := range keep {
		for dep := range g.deps[name] {
			if _, ok := keep[dep]; ok {
				sub.link(name, dep)
			}
		}
	}
	return sub
}

// GraphFromDeps rebuilds a graph from persisted per-resource dependency
// lists (restart recovery, where the template may no longer parse).
func GraphFromDeps(deps map[string][]string) *Graph {
	g := &Graph{
		deps:       make(map[string]map[string]struct{}, len(deps)),
		dependents: make(map[string]map[string]struct{}, len(deps)),
	}
	for name := range deps {
		g.deps[name] = make(map[string]struct{})
		g.dependents[name] = make(map[string]struct{})
	}
	for name, nodeDeps := range deps {
		for _, dep := range nodeDeps {
			if _, ok := g.deps[dep]; ok {
				g.link(name, dep)
			}
		}
	}
	return g
}

// findCycle runs a DFS over the dependency edges and returns one cycle as a
// path, or nil.
func (g *Graph) findCycle() []string {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var path []string
	var visit func(name string) []string
	visit = func(name string) []string {
		visiting[name] = true
		path = append(path, name)

		for dep := range g.deps[name] {
			if visiting[dep] {
				// Close the loop for readability.
				return append(path, dep)
			}
			if !visited[dep] {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		delete(visiting, name)
		visited[name] = true
		return nil
	}

	for _, name := range g.Nodes() {
		if !visited[name] {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

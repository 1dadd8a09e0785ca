package stack

import (
	"context"
	"fmt"
	"time"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

// TemplateFormat identifies which frontend parsed a stack's template, so a
// persisted stack can be re-parsed after a restart.
type TemplateFormat string

const (
	FormatYAML TemplateFormat = "yaml"
	FormatHCL  TemplateFormat = "hcl"
)

// Stack is a named collection of resources converged as a unit. All fields
// are owned by the engine loop goroutine; the engine hands out snapshots.
type Stack struct {
	ID           string
	Name         string
	Status       Status
	StatusReason string

	Template       *template.Template
	TemplateSource string
	TemplateFormat TemplateFormat
	Parameters     map[string]any

	Resources map[string]*ResourceState
	Outputs   map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResourceState is the engine's bookkeeping for one stack resource.
type ResourceState struct {
	Name         string
	Type         string
	PhysicalID   string
	Status       Status
	StatusReason string

	// Properties is the resolved property snapshot taken when the
	// resource last reached a COMPLETE state; update diffs compare
	// against it, and delete walks use it after a restart.
	Properties resource.Properties

	// Deps is the resolved dependency list (explicit, implicit and
	// plugin-contributed) from the last graph build.
	Deps []string

	// Retain abandons the remote resource on delete instead of destroying
	// it, per the template's deletion policy.
	Retain bool
}

func (r *ResourceState) request(stackName string) resource.Request {
	return resource.Request{
		Stack:      stackName,
		Logical:    r.Name,
		PhysicalID: r.PhysicalID,
		Properties: r.Properties,
	}
}

// Snapshot returns a deep copy safe to hand outside the engine loop.
func (s *Stack) Snapshot() *Stack {
	copied := *s
	copied.Parameters = copyMap(s.Parameters)
	copied.Outputs = copyMap(s.Outputs)
	copied.Resources = make(map[string]*ResourceState, len(s.Resources))
	for name, res := range s.Resources {
		resCopy := *res
		resCopy.Properties = copyMap(res.Properties)
		resCopy.Deps = append([]string(nil), res.Deps...)
		copied.Resources[name] = &resCopy
	}
	return &copied
}

func copyMap[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	copied := make(M, len(m))
	for key, value := range m {
		copied[key] = value
	}
	return copied
}

// scope resolves template references against the live stack. It is used
// from walk workers; resource states it reads are only written by the same
// worker or by workers of already-completed dependencies, which the graph
// ordering serializes.
type scope struct {
	ctx      context.Context
	stack    *Stack
	registry *resource.Registry
}

var _ template.Scope = (*scope)(nil)

func (s *scope) Param(name string) (any, bool) {
	value, ok := s.stack.Parameters[name]
	return value, ok
}

func (s *scope) ResourceID(name string) (string, bool) {
	res, ok := s.stack.Resources[name]
	if !ok || res.PhysicalID == "" {
		return "", false
	}
	return res.PhysicalID, true
}

func (s *scope) ResourceAttr(name, attr string) (any, error) {
	res, ok := s.stack.Resources[name]
	if !ok || res.PhysicalID == "" {
		return nil, fmt.Errorf("resource '%s' is not live", name)
	}
	plugin, ok := s.registry.Get(res.Type)
	if !ok {
		return nil, fmt.Errorf("unknown resource type '%s'", res.Type)
	}
	resolver, ok := plugin.(resource.AttributeResolver)
	if !ok {
		return nil, fmt.Errorf("resource type '%s' exposes no attributes", res.Type)
	}
	value, err := resolver.ResolveAttribute(s.ctx, res.request(s.stack.Name), attr)
	if err != nil {
		return nil, fmt.Errorf("attribute '%s.%s': %w", name, attr, err)
	}
	return value, nil
}

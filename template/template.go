package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

const Version = "1"

// Template is the in-memory form of a stack template, shared by the YAML and
// HCL frontends.
type Template struct {
	Version    string
	Parameters map[string]*Parameter
	Resources  map[string]*Resource
	Outputs    map[string]*Output
}

type ParamType string

const (
	ParamString ParamType = "string"
	ParamNumber ParamType = "number"
	ParamBool   ParamType = "bool"
	ParamList   ParamType = "list"
)

type Parameter struct {
	Type        ParamType
	Description string
	// Default is nil when the parameter is required.
	Default any
}

type DeletionPolicy string

const (
	// DeletionPolicyDelete removes the remote resource when the stack
	// resource is deleted. This is the default.
	DeletionPolicyDelete DeletionPolicy = "delete"
	// DeletionPolicyRetain abandons the remote resource instead of
	// deleting it.
	DeletionPolicyRetain DeletionPolicy = "retain"
)

type Resource struct {
	Name           string
	Type           string
	Properties     Properties
	DependsOn      []string
	DeletionPolicy DeletionPolicy
}

type Output struct {
	Description string
	Value       Expr
}

// Ref is a reference from a property or output to a sibling resource.
// An empty Attr refers to the resource's physical ID.
type Ref struct {
	Resource string
	Attr     string
}

// Scope provides the live values references resolve against.
type Scope interface {
	Param(name string) (any, bool)
	// ResourceID returns the physical ID of a resource of the stack.
	ResourceID(name string) (string, bool)
	// ResourceAttr resolves a runtime attribute of a live resource.
	ResourceAttr(name, attr string) (any, error)
}

// Expr is a single template value that may embed references.
type Expr interface {
	Refs() []Ref
	Resolve(scope Scope) (any, error)
}

// Properties is the property set of one resource. Frontends keep their own
// representation (intrinsic-function tree for YAML, deferred hcl.Body for
// HCL) behind this interface.
type Properties interface {
	Refs() []Ref
	Resolve(scope Scope) (map[string]any, error)
}

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Validate checks structural consistency: identifiers, reference targets,
// dependency targets, parameter defaults. It does not touch any provider.
func (t *Template) Validate() error {
	var result error

	if t.Version != Version {
		result = multierror.Append(result, fmt.Errorf("unsupported template version '%s'", t.Version))
	}
	if len(t.Resources) == 0 {
		result = multierror.Append(result, fmt.Errorf("template declares no resources"))
	}

	for name, param := range t.Parameters {
		if !nameRegex.MatchString(name) {
			result = multierror.Append(result, fmt.Errorf("parameter '%s': name must be a valid identifier", name))
		}
		switch param.Type {
		case ParamString, ParamNumber, ParamBool, ParamList:
		default:
			result = multierror.Append(result, fmt.Errorf("parameter '%s': unknown type '%s'", name, param.Type))
		}
		if param.Default != nil {
			if _, err := coerceParam(param.Type, param.Default); err != nil {
				result = multierror.Append(result, fmt.Errorf("parameter '%s': invalid default: %w", name, err))
			}
		}
	}

	for name, res := range t.Resources {
		if !nameRegex.MatchString(name) {
			result = multierror.Append(result, fmt.Errorf("resource '%s': name must be a valid identifier", name))
		}
		if res.Type == "" {
			result = multierror.Append(result, fmt.Errorf("resource '%s': type is required", name))
		}
		switch res.DeletionPolicy {
		case DeletionPolicyDelete, DeletionPolicyRetain:
		default:
			result = multierror.Append(result, fmt.Errorf("resource '%s': unknown deletion policy '%s'", name, res.DeletionPolicy))
		}
		for _, dep := range res.DependsOn {
			if dep == name {
				result = multierror.Append(result, fmt.Errorf("resource '%s' depends on itself", name))
			} else if _, ok := t.Resources[dep]; !ok {
				result = multierror.Append(result, fmt.Errorf("resource '%s' depends on unknown resource '%s'", name, dep))
			}
		}
		for _, ref := range res.Properties.Refs() {
			if ref.Resource == name {
				result = multierror.Append(result, fmt.Errorf("resource '%s' references itself", name))
			} else if _, ok := t.Resources[ref.Resource]; !ok {
				result = multierror.Append(result, fmt.Errorf("resource '%s' references unknown resource '%s'", name, ref.Resource))
			}
		}
	}

	for name, output := range t.Outputs {
		if !nameRegex.MatchString(name) {
			result = multierror.Append(result, fmt.Errorf("output '%s': name must be a valid identifier", name))
		}
		for _, ref := range output.Value.Refs() {
			if _, ok := t.Resources[ref.Resource]; !ok {
				result = multierror.Append(result, fmt.Errorf("output '%s' references unknown resource '%s'", name, ref.Resource))
			}
		}
	}

	return result
}

// BindParams merges provided parameter values with declared defaults,
// coercing string inputs (the CLI passes everything as strings) to the
// declared type. Unknown and missing parameters are errors.
func (t *Template) BindParams(values map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(t.Parameters))
	var result error

	for name := range values {
		if _, ok := t.Parameters[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("unknown parameter '%s'", name))
		}
	}

	for name, param := range t.Parameters {
		raw, provided := values[name]
		if !provided {
			if param.Default == nil {
				result = multierror.Append(result, fmt.Errorf("missing required parameter '%s'", name))
				continue
			}
			raw = param.Default
		}
		value, err := coerceParam(param.Type, raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("parameter '%s': %w", name, err))
			continue
		}
		bound[name] = value
	}

	return bound, result
}

func coerceParam(paramType ParamType, raw any) (any, error) {
	switch paramType {
	case ParamString:
		switch v := raw.(type) {
		case string:
			return v, nil
		case int, int64, float64, bool:
			return fmt.Sprintf("%v", v), nil
		}
	case ParamNumber:
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, nil
			}
		}
	case ParamBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
	case ParamList:
		switch v := raw.(type) {
		case []any:
			return v, nil
		case []string:
			return lo.Map(v, func(s string, _ int) any { return s }), nil
		case string:
			// CLI shorthand: comma-separated values.
			return lo.Map(strings.Split(v, ","), func(s string, _ int) any { return strings.TrimSpace(s) }), nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", raw, paramType)
}

// ResourceRefs returns every sibling resource the given resource refers to,
// whether through depends_on or through property references. Duplicates are
// collapsed.
func (t *Template) ResourceRefs(res *Resource) []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			refs = append(refs, name)
		}
	}
	for _, dep := range res.DependsOn {
		add(dep)
	}
	for _, ref := range res.Properties.Refs() {
		add(ref.Resource)
	}
	return refs
}

package hcltemplate

import (
	"fmt"
	"sort"

	"github.com/gammadia/furnace/template"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// properties keeps resource attributes as unevaluated expressions together
// with the references mined from them at parse time.
type properties struct {
	exprs  map[string]hcl.Expression
	refs   []template.Ref
	params []string
}

var _ template.Properties = (*properties)(nil)

func newProperties(exprs map[string]hcl.Expression) *properties {
	p := &properties{exprs: exprs}
	for _, name := range sortedKeys(exprs) {
		refs, params := mineRefs(exprs[name])
		p.refs = append(p.refs, refs...)
		p.params = append(p.params, params...)
	}
	return p
}

func (p *properties) Refs() []template.Ref {
	return p.refs
}

func (p *properties) Resolve(scope template.Scope) (map[string]any, error) {
	evalCtx, err := buildEvalContext(scope, p.refs, p.params)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(p.exprs))
	for name, expr := range p.exprs {
		value, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("property '%s': %w", name, diags)
		}
		converted, err := ctyToGo(value)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", name, err)
		}
		resolved[name] = converted
	}
	return resolved, nil
}

// expr wraps a single output expression.
type expr struct {
	expr   hcl.Expression
	refs   []template.Ref
	params []string
}

var _ template.Expr = (*expr)(nil)

func newExpr(e hcl.Expression) *expr {
	refs, params := mineRefs(e)
	return &expr{expr: e, refs: refs, params: params}
}

func (e *expr) Refs() []template.Ref {
	return e.refs
}

func (e *expr) Resolve(scope template.Scope) (any, error) {
	evalCtx, err := buildEvalContext(scope, e.refs, e.params)
	if err != nil {
		return nil, err
	}
	value, diags := e.expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w", diags)
	}
	return ctyToGo(value)
}

// mineRefs walks an expression's variable traversals for param.<name> and
// resource.<name>[.<attr>] references. A resource reference without an
// attribute, or with the reserved attribute "id", refers to the physical ID.
func mineRefs(e hcl.Expression) (refs []template.Ref, params []string) {
	for _, traversal := range e.Variables() {
		switch traversal.RootName() {
		case "param":
			if len(traversal) >= 2 {
				if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
					params = append(params, attr.Name)
				}
			}
		case "resource":
			if len(traversal) < 2 {
				continue
			}
			nameAttr, ok := traversal[1].(hcl.TraverseAttr)
			if !ok {
				continue
			}
			ref := template.Ref{Resource: nameAttr.Name}
			if len(traversal) >= 3 {
				if attr, ok := traversal[2].(hcl.TraverseAttr); ok && attr.Name != "id" {
					ref.Attr = attr.Name
				}
			}
			refs = append(refs, ref)
		}
	}
	return refs, params
}

// buildEvalContext assembles the variables an expression needs: one object
// per referenced resource (physical ID plus the referenced attributes) and
// one object holding the referenced parameters.
func buildEvalContext(scope template.Scope, refs []template.Ref, params []string) (*hcl.EvalContext, error) {
	paramValues := make(map[string]cty.Value)
	for _, name := range params {
		value, ok := scope.Param(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter '%s'", name)
		}
		converted, err := goToCty(value)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': %w", name, err)
		}
		paramValues[name] = converted
	}

	resourceAttrs := make(map[string]map[string]cty.Value)
	for _, ref := range refs {
		attrs, ok := resourceAttrs[ref.Resource]
		if !ok {
			id, live := scope.ResourceID(ref.Resource)
			if !live {
				return nil, fmt.Errorf("resource '%s' is not live", ref.Resource)
			}
			attrs = map[string]cty.Value{"id": cty.StringVal(id)}
			resourceAttrs[ref.Resource] = attrs
		}
		if ref.Attr == "" {
			continue
		}
		if _, done := attrs[ref.Attr]; done {
			continue
		}
		value, err := scope.ResourceAttr(ref.Resource, ref.Attr)
		if err != nil {
			return nil, err
		}
		converted, err := goToCty(value)
		if err != nil {
			return nil, fmt.Errorf("attribute '%s.%s': %w", ref.Resource, ref.Attr, err)
		}
		attrs[ref.Attr] = converted
	}

	resourceValues := make(map[string]cty.Value, len(resourceAttrs))
	for name, attrs := range resourceAttrs {
		resourceValues[name] = cty.ObjectVal(attrs)
	}

	variables := make(map[string]cty.Value)
	if len(paramValues) > 0 {
		variables["param"] = cty.ObjectVal(paramValues)
	}
	if len(resourceValues) > 0 {
		variables["resource"] = cty.ObjectVal(resourceValues)
	}
	return &hcl.EvalContext{Variables: variables}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

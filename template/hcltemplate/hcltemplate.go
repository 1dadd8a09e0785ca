// Package hcltemplate is the HCL frontend for stack templates. Property
// expressions are kept as unevaluated hcl.Expression values and only
// evaluated once the resources they refer to are live, against an eval
// context assembled from the template scope.
package hcltemplate

import (
	"fmt"

	"github.com/gammadia/furnace/template"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

var topLevelSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "parameter", LabelNames: []string{"name"}},
		{Type: "resource", LabelNames: []string{"type", "name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

var parameterSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
	},
}

var outputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "value", Required: true},
	},
}

// Reserved resource attributes that configure the resource itself rather
// than becoming plugin properties.
const (
	attrDependsOn      = "depends_on"
	attrDeletionPolicy = "deletion_policy"
)

// Parse decodes an HCL stack template and validates it.
func Parse(filename string, src []byte) (*template.Template, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse: %w", diags)
	}

	content, diags := file.Body.Content(topLevelSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode: %w", diags)
	}

	tmpl := &template.Template{
		Version:    template.Version,
		Parameters: make(map[string]*template.Parameter),
		Resources:  make(map[string]*template.Resource),
		Outputs:    make(map[string]*template.Output),
	}

	for _, block := range content.Blocks {
		switch block.Type {
		case "parameter":
			name := block.Labels[0]
			if _, exists := tmpl.Parameters[name]; exists {
				return nil, fmt.Errorf("duplicate parameter '%s'", name)
			}
			param, err := decodeParameter(block)
			if err != nil {
				return nil, err
			}
			tmpl.Parameters[name] = param

		case "resource":
			name := block.Labels[1]
			if _, exists := tmpl.Resources[name]; exists {
				return nil, fmt.Errorf("duplicate resource '%s'", name)
			}
			res, err := decodeResource(block)
			if err != nil {
				return nil, err
			}
			tmpl.Resources[name] = res

		case "output":
			name := block.Labels[0]
			if _, exists := tmpl.Outputs[name]; exists {
				return nil, fmt.Errorf("duplicate output '%s'", name)
			}
			output, err := decodeOutput(block)
			if err != nil {
				return nil, err
			}
			tmpl.Outputs[name] = output
		}
	}

	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return tmpl, nil
}

func decodeParameter(block *hcl.Block) (*template.Parameter, error) {
	name := block.Labels[0]
	content, diags := block.Body.Content(parameterSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parameter '%s': %w", name, diags)
	}

	param := &template.Parameter{Type: template.ParamString}

	if attr, ok := content.Attributes["type"]; ok {
		if keyword := hcl.ExprAsKeyword(attr.Expr); keyword != "" {
			param.Type = template.ParamType(keyword)
		} else {
			value, err := staticString(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("parameter '%s': type: %w", name, err)
			}
			param.Type = template.ParamType(value)
		}
	}

	if attr, ok := content.Attributes["description"]; ok {
		value, err := staticString(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': description: %w", name, err)
		}
		param.Description = value
	}

	if attr, ok := content.Attributes["default"]; ok {
		value, valueDiags := attr.Expr.Value(nil)
		if valueDiags.HasErrors() {
			return nil, fmt.Errorf("parameter '%s': default must be a static value: %w", name, valueDiags)
		}
		converted, err := ctyToGo(value)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': default: %w", name, err)
		}
		param.Default = converted
	}

	return param, nil
}

func decodeResource(block *hcl.Block) (*template.Resource, error) {
	resType, name := block.Labels[0], block.Labels[1]

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("resource '%s': %w", name, diags)
	}

	res := &template.Resource{
		Name:           name,
		Type:           resType,
		DeletionPolicy: template.DeletionPolicyDelete,
	}

	properties := make(map[string]hcl.Expression, len(attrs))
	for attrName, attr := range attrs {
		switch attrName {
		case attrDependsOn:
			deps, err := staticStringList(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("resource '%s': depends_on: %w", name, err)
			}
			res.DependsOn = deps

		case attrDeletionPolicy:
			policy, err := staticString(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("resource '%s': deletion_policy: %w", name, err)
			}
			res.DeletionPolicy = template.DeletionPolicy(policy)

		default:
			properties[attrName] = attr.Expr
		}
	}

	res.Properties = newProperties(properties)
	return res, nil
}

func decodeOutput(block *hcl.Block) (*template.Output, error) {
	name := block.Labels[0]
	content, diags := block.Body.Content(outputSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("output '%s': %w", name, diags)
	}

	output := &template.Output{}
	if attr, ok := content.Attributes["description"]; ok {
		value, err := staticString(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("output '%s': description: %w", name, err)
		}
		output.Description = value
	}
	output.Value = newExpr(content.Attributes["value"].Expr)
	return output, nil
}

// staticString evaluates an expression that must not contain references.
func staticString(expr hcl.Expression) (string, error) {
	value, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", fmt.Errorf("expected a static string: %w", diags)
	}
	converted, err := ctyToGo(value)
	if err != nil {
		return "", err
	}
	s, ok := converted.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", converted)
	}
	return s, nil
}

// staticStringList accepts both quoted names and bare resource.<name>
// traversals in depends_on lists.
func staticStringList(expr hcl.Expression) ([]string, error) {
	items, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("expected a list: %w", diags)
	}

	var names []string
	for _, item := range items {
		if traversal, travDiags := hcl.AbsTraversalForExpr(item); !travDiags.HasErrors() {
			if len(traversal) == 2 && traversal.RootName() == "resource" {
				if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
					names = append(names, attr.Name)
					continue
				}
			}
			if len(traversal) == 1 {
				names = append(names, traversal.RootName())
				continue
			}
			return nil, fmt.Errorf("unsupported depends_on reference")
		}
		name, err := staticString(item)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

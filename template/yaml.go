package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalError carries the template source alongside the parse error so
// callers can display it in verbose mode.
type UnmarshalError struct {
	error
	Source string
}

type yamlTemplate struct {
	Version    string                   `yaml:"version"`
	Parameters map[string]yamlParameter `yaml:"parameters"`
	Resources  map[string]yamlResource  `yaml:"resources"`
	Outputs    map[string]yamlOutput    `yaml:"outputs"`
}

type yamlParameter struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Default     any    `yaml:"default"`
}

type yamlResource struct {
	Type           string         `yaml:"type"`
	Properties     map[string]any `yaml:"properties"`
	DependsOn      []string       `yaml:"depends_on"`
	DeletionPolicy string         `yaml:"deletion_policy"`
}

type yamlOutput struct {
	Description string `yaml:"description"`
	Value       any    `yaml:"value"`
}

// ParseYAML decodes a YAML stack template and validates it.
func ParseYAML(src []byte) (*Template, error) {
	var raw yamlTemplate
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, UnmarshalError{fmt.Errorf("unmarshal: %w", err), string(src)}
	}

	tmpl := &Template{
		Version:    raw.Version,
		Parameters: make(map[string]*Parameter, len(raw.Parameters)),
		Resources:  make(map[string]*Resource, len(raw.Resources)),
		Outputs:    make(map[string]*Output, len(raw.Outputs)),
	}

	for name, param := range raw.Parameters {
		paramType := ParamType(param.Type)
		if param.Type == "" {
			paramType = ParamString
		}
		tmpl.Parameters[name] = &Parameter{
			Type:        paramType,
			Description: param.Description,
			Default:     param.Default,
		}
	}

	for name, res := range raw.Resources {
		values := make(map[string]Value, len(res.Properties))
		for key, raw := range res.Properties {
			value, err := compileValue(raw)
			if err != nil {
				return nil, fmt.Errorf("resource '%s', property '%s': %w", name, key, err)
			}
			values[key] = value
		}

		policy := DeletionPolicy(res.DeletionPolicy)
		if res.DeletionPolicy == "" {
			policy = DeletionPolicyDelete
		}

		tmpl.Resources[name] = &Resource{
			Name:           name,
			Type:           res.Type,
			Properties:     AsProperties(values),
			DependsOn:      res.DependsOn,
			DeletionPolicy: policy,
		}
	}

	for name, output := range raw.Outputs {
		value, err := compileValue(output.Value)
		if err != nil {
			return nil, fmt.Errorf("output '%s': %w", name, err)
		}
		tmpl.Outputs[name] = &Output{
			Description: output.Description,
			Value:       AsExpr(value),
		}
	}

	if err := tmpl.Validate(); err != nil {
		return nil, UnmarshalError{fmt.Errorf("validate: %w", err), string(src)}
	}
	return tmpl, nil
}

// compileValue turns a decoded YAML node into a Value, recognizing
// single-key intrinsic-function maps.
func compileValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case map[string]any:
		if len(v) == 1 {
			for key, arg := range v {
				switch key {
				case "get_param":
					return compileGetParam(arg)
				case "get_resource":
					return compileGetResource(arg)
				case "get_attr":
					return compileGetAttr(arg)
				case "join":
					return compileJoin(arg)
				}
			}
		}
		entries := make(map[string]Value, len(v))
		for key, entry := range v {
			value, err := compileValue(entry)
			if err != nil {
				return nil, err
			}
			entries[key] = value
		}
		return Map(entries), nil

	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			value, err := compileValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = value
		}
		return listValue{items}, nil

	default:
		return Scalar(raw), nil
	}
}

func compileGetParam(arg any) (Value, error) {
	name, ok := arg.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("get_param expects a parameter name, got %T", arg)
	}
	return GetParam(name), nil
}

func compileGetResource(arg any) (Value, error) {
	name, ok := arg.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("get_resource expects a resource name, got %T", arg)
	}
	return GetResource(name), nil
}

func compileGetAttr(arg any) (Value, error) {
	args, ok := arg.([]any)
	if !ok || len(args) != 2 {
		return nil, fmt.Errorf("get_attr expects [resource, attribute]")
	}
	resource, resOk := args[0].(string)
	attr, attrOk := args[1].(string)
	if !resOk || !attrOk || resource == "" || attr == "" {
		return nil, fmt.Errorf("get_attr expects [resource, attribute] as strings")
	}
	return GetAttr(resource, attr), nil
}

func compileJoin(arg any) (Value, error) {
	args, ok := arg.([]any)
	if !ok || len(args) != 2 {
		return nil, fmt.Errorf("join expects [separator, [items...]]")
	}
	separator, sepOk := args[0].(string)
	rawItems, itemsOk := args[1].([]any)
	if !sepOk || !itemsOk {
		return nil, fmt.Errorf("join expects [separator, [items...]]")
	}
	items := make([]Value, len(rawItems))
	for i, raw := range rawItems {
		value, err := compileValue(raw)
		if err != nil {
			return nil, err
		}
		items[i] = value
	}
	return Join(separator, items...), nil
}

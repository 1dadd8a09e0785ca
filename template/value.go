package template

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Value is one node of a YAML property tree. Intrinsic functions
// (get_param, get_resource, get_attr, join) are Value implementations that
// defer to the Scope at resolve time.
type Value interface {
	refs(out *[]Ref)
	resolve(scope Scope) (any, error)
}

// Value implements Expr through exprValue, and a map of values implements
// Properties through mapProperties.

type exprValue struct {
	value Value
}

func (e exprValue) Refs() []Ref {
	var out []Ref
	e.value.refs(&out)
	return out
}

func (e exprValue) Resolve(scope Scope) (any, error) {
	return e.value.resolve(scope)
}

// AsExpr wraps a Value as a template expression.
func AsExpr(v Value) Expr {
	return exprValue{v}
}

type mapProperties struct {
	values map[string]Value
}

// AsProperties wraps named values as a resource property set.
func AsProperties(values map[string]Value) Properties {
	return mapProperties{values}
}

func (p mapProperties) Refs() []Ref {
	var out []Ref
	for _, v := range p.values {
		v.refs(&out)
	}
	return out
}

func (p mapProperties) Resolve(scope Scope) (map[string]any, error) {
	resolved := make(map[string]any, len(p.values))
	for name, v := range p.values {
		value, err := v.resolve(scope)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", name, err)
		}
		resolved[name] = value
	}
	return resolved, nil
}

// --- Plain values ---

type scalarValue struct {
	value any
}

func (v scalarValue) refs(*[]Ref) {}

func (v scalarValue) resolve(Scope) (any, error) {
	return v.value, nil
}

type listValue struct {
	items []Value
}

func (v listValue) refs(out *[]Ref) {
	for _, item := range v.items {
		item.refs(out)
	}
}

func (v listValue) resolve(scope Scope) (any, error) {
	items := make([]any, len(v.items))
	for i, item := range v.items {
		resolved, err := item.resolve(scope)
		if err != nil {
			return nil, err
		}
		items[i] = resolved
	}
	return items, nil
}

type mapValue struct {
	entries map[string]Value
}

func (v mapValue) refs(out *[]Ref) {
	for _, entry := range v.entries {
		entry.refs(out)
	}
}

func (v mapValue) resolve(scope Scope) (any, error) {
	entries := make(map[string]any, len(v.entries))
	for key, entry := range v.entries {
		resolved, err := entry.resolve(scope)
		if err != nil {
			return nil, err
		}
		entries[key] = resolved
	}
	return entries, nil
}

// --- Intrinsic functions ---

type getParamValue struct {
	name string
}

func (v getParamValue) refs(*[]Ref) {}

func (v getParamValue) resolve(scope Scope) (any, error) {
	value, ok := scope.Param(v.name)
	if !ok {
		return nil, fmt.Errorf("get_param: unknown parameter '%s'", v.name)
	}
	return value, nil
}

type getResourceValue struct {
	name string
}

func (v getResourceValue) refs(out *[]Ref) {
	*out = append(*out, Ref{Resource: v.name})
}

func (v getResourceValue) resolve(scope Scope) (any, error) {
	id, ok := scope.ResourceID(v.name)
	if !ok {
		return nil, fmt.Errorf("get_resource: resource '%s' is not live", v.name)
	}
	return id, nil
}

type getAttrValue struct {
	resource string
	attr     string
}

func (v getAttrValue) refs(out *[]Ref) {
	*out = append(*out, Ref{Resource: v.resource, Attr: v.attr})
}

func (v getAttrValue) resolve(scope Scope) (any, error) {
	return scope.ResourceAttr(v.resource, v.attr)
}

type joinValue struct {
	separator string
	items     []Value
}

func (v joinValue) refs(out *[]Ref) {
	for _, item := range v.items {
		item.refs(out)
	}
}

func (v joinValue) resolve(scope Scope) (any, error) {
	parts := make([]string, len(v.items))
	for i, item := range v.items {
		resolved, err := item.resolve(scope)
		if err != nil {
			return nil, err
		}
		parts[i] = fmt.Sprintf("%v", resolved)
	}
	return strings.Join(parts, v.separator), nil
}

// --- Constructors, used by the YAML frontend and by tests ---

func Scalar(v any) Value                 { return scalarValue{v} }
func List(items ...Value) Value          { return listValue{items} }
func Map(entries map[string]Value) Value { return mapValue{entries} }
func GetParam(name string) Value         { return getParamValue{name} }
func GetResource(name string) Value      { return getResourceValue{name} }
func GetAttr(resource, attr string) Value {
	return getAttrValue{resource: resource, attr: attr}
}
func Join(separator string, items ...Value) Value {
	return joinValue{separator: separator, items: items}
}

// ScalarList is a convenience for lists of plain values.
func ScalarList(items ...any) Value {
	return listValue{lo.Map(items, func(item any, _ int) Value { return Scalar(item) })}
}

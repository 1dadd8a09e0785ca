package resource

import (
	"fmt"

	"github.com/samber/lo"
)

// Properties are the resolved template properties of one resource. The
// typed accessors below absorb the loose typing of template sources
// (numbers arrive as float64 from both frontends).
type Properties map[string]any

// String returns a required string property.
func (p Properties) String(key string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing required property '%s'", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("property '%s': expected string, got %T", key, raw)
	}
	return s, nil
}

// OptString returns a string property or the empty string.
func (p Properties) OptString(key string) string {
	s, _ := p[key].(string)
	return s
}

// OptBool returns a bool property or the given default.
func (p Properties) OptBool(key string, def bool) bool {
	if raw, ok := p[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return def
}

// OptInt returns a numeric property as int, or the given default.
func (p Properties) OptInt(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// StringList returns a list property as strings; a missing property is an
// empty list, a scalar string is a one-element list.
func (p Properties) StringList(key string) ([]string, error) {
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("property '%s': expected strings, got %T", key, item)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("property '%s': expected a list of strings, got %T", key, p[key])
}

// OptMap returns a nested map property or nil.
func (p Properties) OptMap(key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}

// StringMap returns a nested map property with string values; non-string
// values are formatted.
func (p Properties) StringMap(key string) map[string]string {
	m := p.OptMap(key)
	if m == nil {
		return nil
	}
	return lo.MapEntries(m, func(k string, v any) (string, string) {
		return k, fmt.Sprintf("%v", v)
	})
}

// Has reports whether a property was set to a non-nil value.
func (p Properties) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

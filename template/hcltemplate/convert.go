package hcltemplate

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ctyToGo converts an evaluated cty.Value into the plain Go values resource
// plugins consume (string, float64, bool, []any, map[string]any).
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t == cty.Bool:
		return val.True(), nil

	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, item := it.Element()
			converted, err := ctyToGo(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil

	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			key, item := it.Element()
			converted, err := ctyToGo(item)
			if err != nil {
				return nil, err
			}
			out[key.AsString()] = converted
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported value type %s", t.FriendlyName())
}

// goToCty converts plain Go values (parameter values and resolved resource
// attributes) into cty values for expression evaluation.
func goToCty(value any) (cty.Value, error) {
	switch v := value.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil

	case []string:
		items := make([]cty.Value, len(v))
		for i, item := range v {
			items[i] = cty.StringVal(item)
		}
		return cty.TupleVal(items), nil

	case []any:
		items := make([]cty.Value, len(v))
		for i, item := range v {
			converted, err := goToCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			items[i] = converted
		}
		return cty.TupleVal(items), nil

	case map[string]any:
		entries := make(map[string]cty.Value, len(v))
		for key, item := range v {
			converted, err := goToCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			entries[key] = converted
		}
		return cty.ObjectVal(entries), nil
	}

	return cty.NilVal, fmt.Errorf("unsupported value type %T", value)
}

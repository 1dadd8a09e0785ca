package stack

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/gammadia/furnace/resource"
)

// diffProperties returns the sorted keys whose value differs between two
// property sets, including keys present on only one side.
func diffProperties(old, new resource.Properties) []string {
	keys := make(map[string]struct{}, len(old)+len(new))
	for key := range old {
		keys[key] = struct{}{}
	}
	for key := range new {
		keys[key] = struct{}{}
	}

	var changed []string
	for key := range keys {
		if !equalValue(old[key], new[key]) {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

// equalValue compares through a JSON round trip so that values that only
// differ in numeric type (an int resolved from a template against a float64
// loaded from the store) still compare equal.
func equalValue(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(aj, bj)
}

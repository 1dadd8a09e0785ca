package template

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScope struct {
	params map[string]any
	ids    map[string]string
	attrs  map[string]any
}

func (s fakeScope) Param(name string) (any, bool) {
	v, ok := s.params[name]
	return v, ok
}

func (s fakeScope) ResourceID(name string) (string, bool) {
	id, ok := s.ids[name]
	return id, ok
}

func (s fakeScope) ResourceAttr(name, attr string) (any, error) {
	v, ok := s.attrs[name+"."+attr]
	if !ok {
		return nil, fmt.Errorf("no attribute '%s' on '%s'", attr, name)
	}
	return v, nil
}

func TestResolveScalarsAndContainers(t *testing.T) {
	scope := fakeScope{}
	props := AsProperties(map[string]Value{
		"name":  Scalar("demo"),
		"size":  Scalar(42),
		"tags":  ScalarList("a", "b"),
		"extra": Map(map[string]Value{"nested": Scalar(true)}),
	})

	resolved, err := props.Resolve(scope)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "demo",
		"size":  42,
		"tags":  []any{"a", "b"},
		"extra": map[string]any{"nested": true},
	}, resolved)
}

func TestResolveIntrinsics(t *testing.T) {
	scope := fakeScope{
		params: map[string]any{"flavor": "m1.small"},
		ids:    map[string]string{"network": "net-123"},
		attrs:  map[string]any{"server.first_address": "10.0.0.5"},
	}
	props := AsProperties(map[string]Value{
		"flavor":  GetParam("flavor"),
		"network": GetResource("network"),
		"address": GetAttr("server", "first_address"),
		"url":     Join(":", GetAttr("server", "first_address"), Scalar(8080)),
	})

	resolved, err := props.Resolve(scope)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"flavor":  "m1.small",
		"network": "net-123",
		"address": "10.0.0.5",
		"url":     "10.0.0.5:8080",
	}, resolved)
}

func TestResolveErrors(t *testing.T) {
	scope := fakeScope{}

	_, err := AsProperties(map[string]Value{"p": GetParam("ghost")}).Resolve(scope)
	assert.ErrorContains(t, err, "unknown parameter 'ghost'")

	_, err = AsProperties(map[string]Value{"r": GetResource("ghost")}).Resolve(scope)
	assert.ErrorContains(t, err, "resource 'ghost' is not live")

	_, err = AsProperties(map[string]Value{"a": GetAttr("ghost", "x")}).Resolve(scope)
	assert.ErrorContains(t, err, "property 'a'")
}

func TestRefsCollectsNestedReferences(t *testing.T) {
	props := AsProperties(map[string]Value{
		"plain": Scalar("x"),
		"list":  List(GetResource("network"), Scalar(1)),
		"map":   Map(map[string]Value{"attr": GetAttr("server", "status")}),
	})

	refs := props.Refs()
	assert.ElementsMatch(t, []Ref{
		{Resource: "network"},
		{Resource: "server", Attr: "status"},
	}, refs)
}

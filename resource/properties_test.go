package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesString(t *testing.T) {
	props := Properties{"name": "demo", "size": 42}

	s, err := props.String("name")
	require.NoError(t, err)
	assert.Equal(t, "demo", s)

	_, err = props.String("missing")
	assert.ErrorContains(t, err, "missing required property 'missing'")

	_, err = props.String("size")
	assert.ErrorContains(t, err, "expected string, got int")
}

func TestPropertiesOptAccessors(t *testing.T) {
	props := Properties{
		"name":    "demo",
		"enabled": true,
		"size":    float64(42),
	}

	assert.Equal(t, "demo", props.OptString("name"))
	assert.Equal(t, "", props.OptString("missing"))
	assert.True(t, props.OptBool("enabled", false))
	assert.True(t, props.OptBool("missing", true))
	assert.Equal(t, 42, props.OptInt("size", 0))
	assert.Equal(t, 7, props.OptInt("missing", 7))
}

func TestPropertiesStringList(t *testing.T) {
	props := Properties{
		"scalar": "one",
		"any":    []any{"a", "b"},
		"typed":  []string{"c"},
		"mixed":  []any{"a", 1},
		"number": 42,
	}

	list, err := props.StringList("scalar")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, list)

	list, err = props.StringList("any")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	list, err = props.StringList("typed")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, list)

	list, err = props.StringList("missing")
	require.NoError(t, err)
	assert.Nil(t, list)

	_, err = props.StringList("mixed")
	assert.ErrorContains(t, err, "expected strings")

	_, err = props.StringList("number")
	assert.ErrorContains(t, err, "expected a list of strings")
}

func TestPropertiesMaps(t *testing.T) {
	props := Properties{
		"metadata": map[string]any{"role": "web", "weight": 3},
	}

	assert.Equal(t, map[string]any{"role": "web", "weight": 3}, props.OptMap("metadata"))
	assert.Nil(t, props.OptMap("missing"))
	assert.Equal(t, map[string]string{"role": "web", "weight": "3"}, props.StringMap("metadata"))
	assert.Nil(t, props.StringMap("missing"))
}

func TestPropertiesHas(t *testing.T) {
	props := Properties{"set": "x", "null": nil}

	assert.True(t, props.Has("set"))
	assert.False(t, props.Has("null"))
	assert.False(t, props.Has("missing"))
}

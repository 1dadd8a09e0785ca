package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSource = "version: \"1\"\nresources:\n  network:\n    type: openstack::network\n"

const hclSource = "resource \"openstack::network\" \"network\" {}\n"

func TestFileYAML(t *testing.T) {
	for _, filename := range []string{"stack.yaml", "stack.yml"} {
		tmpl, err := File(filename, []byte(yamlSource))
		require.NoError(t, err)
		assert.Contains(t, tmpl.Resources, "network")
	}
}

func TestFileHCL(t *testing.T) {
	tmpl, err := File("stack.hcl", []byte(hclSource))
	require.NoError(t, err)
	assert.Contains(t, tmpl.Resources, "network")
}

func TestFileUnknownExtension(t *testing.T) {
	_, err := File("stack.json", []byte(yamlSource))
	assert.ErrorContains(t, err, "unsupported template extension '.json'")
}

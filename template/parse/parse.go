// Package parse dispatches template sources to the right frontend based on
// file extension.
package parse

import (
	"fmt"
	"path"

	"github.com/gammadia/furnace/template"
	"github.com/gammadia/furnace/template/hcltemplate"
)

// File parses a template source, choosing the frontend from the filename
// extension: .yml/.yaml for YAML, .hcl for HCL.
func File(filename string, src []byte) (*template.Template, error) {
	switch ext := path.Ext(filename); ext {
	case ".yml", ".yaml":
		return template.ParseYAML(src)
	case ".hcl":
		return hcltemplate.Parse(filename, src)
	default:
		return nil, fmt.Errorf("unsupported template extension '%s' (expected .yml, .yaml or .hcl)", ext)
	}
}

package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// FindUniqueBlock searches a slice of blocks for all blocks of a given name.
// It returns a diagnostic error if more than one block of that name is found.
// If no block is found, it returns nil.
func FindUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type == name {
			if found != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"" + name + "\" block",
					Detail:   "Only one \"" + name + "\" block is allowed.",
					Subject:  &block.DefRange,
				})
			}
			found = block
		}
	}

	return found, diags
}

// nodeSchema is the schema of a tree level: any number of named node
// blocks, everything else is a property.
var nodeSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"name"}},
	},
}

// fileSchema is the schema of an image file root.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"name"}},
		{Type: "image"},
	},
}

// imageBlock is decoded with gohcl from the `image` block of an image file.
type imageBlock struct {
	Name           string   `hcl:"name,optional"`
	Firmware       string   `hcl:"firmware,optional"`
	Flags          []string `hcl:"flags,optional"`
	EnableTimeout  string   `hcl:"enable_timeout,optional"`
	DisableTimeout string   `hcl:"disable_timeout,optional"`
	Region         string   `hcl:"region,optional"`
}

package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/fsutil"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Loader reads topology trees and image files written in HCL.
type Loader struct{}

// NewLoader creates a new HCL topology loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadTree parses every .hcl file found under paths into a single tree.
// A path may be a file or a directory; directories are walked recursively.
func (l *Loader) LoadTree(ctx context.Context, paths ...string) (*topology.Tree, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL topology loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl topology files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	tree := topology.NewTree(strings.Join(files, ","))
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeLevel(hclFile.Body, tree.Root()); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	var count int
	_ = tree.Walk(func(*topology.Node) error { count++; return nil })
	logger.Debug("HCL topology loading complete.", "nodes", count)
	return tree, nil
}

// ParseTree parses a single in-memory HCL document into a tree.
func (l *Loader) ParseTree(filename string, src []byte) (*topology.Tree, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	tree := topology.NewTree(filename)
	if err := decodeLevel(hclFile.Body, tree.Root()); err != nil {
		return nil, fmt.Errorf("failed to decode HCL %s: %w", filename, err)
	}
	return tree, nil
}

// LoadImage reads an image file. The returned info carries the overlay
// root, whose references resolve against base. A relative firmware path is
// taken relative to the image file; URLs are kept as written.
func (l *Loader) LoadImage(ctx context.Context, base *topology.Tree, path string) (*image.Info, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading image file.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	info, err := l.ParseImage(base, path, src)
	if err != nil {
		return nil, err
	}
	if info.Firmware != "" && !filepath.IsAbs(info.Firmware) && !strings.Contains(info.Firmware, "://") {
		info.Firmware = filepath.Join(filepath.Dir(path), info.Firmware)
	}
	logger.Debug("Image file loaded.", "image", info.Name, "firmware", info.Firmware, "flags", info.Flags)
	return info, nil
}

// ParseImage parses an in-memory image document.
func (l *Loader) ParseImage(base *topology.Tree, filename string, src []byte) (*image.Info, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse image %s: %w", filename, diags)
	}

	content, remain, diags := hclFile.Body.PartialContent(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, diags)
	}
	block, diags := FindUniqueBlock(content.Blocks, "image")
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid image %s: %w", filename, diags)
	}
	if block == nil {
		return nil, fmt.Errorf("image %s: missing \"image\" block", filename)
	}

	var ib imageBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &ib); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode image block in %s: %w", filename, diags)
	}
	info, err := translateImage(&ib, filename)
	if err != nil {
		return nil, err
	}

	overlay := topology.NewOverlay(base, filename)
	if err := decodeAttributes(remain, fileSchema, overlay.Root()); err != nil {
		return nil, fmt.Errorf("image %s: %w", filename, err)
	}
	if err := decodeNodes(content.Blocks, overlay.Root()); err != nil {
		return nil, fmt.Errorf("image %s: %w", filename, err)
	}
	info.Overlay = overlay.Root()
	return info, nil
}

// decodeLevel decodes the node blocks and properties of one tree level
// into parent.
func decodeLevel(body hcl.Body, parent *topology.Node) error {
	content, remain, diags := body.PartialContent(nodeSchema)
	if diags.HasErrors() {
		return diags
	}
	if err := decodeAttributes(remain, nodeSchema, parent); err != nil {
		return err
	}
	return decodeNodes(content.Blocks, parent)
}

func decodeNodes(blocks hcl.Blocks, parent *topology.Node) error {
	for _, block := range blocks {
		if block.Type != "node" {
			continue
		}
		name := block.Labels[0]
		child := parent.Child(name)
		if child == nil {
			var err error
			child, err = parent.AddChild(name)
			if err != nil {
				return fmt.Errorf("%s: %w", block.DefRange, err)
			}
		} else if len(child.Children()) > 0 || len(child.AttrNames()) > 0 {
			return fmt.Errorf("%s: node %s is declared more than once", block.DefRange, child.Path())
		}
		if err := decodeLevel(block.Body, child); err != nil {
			return err
		}
	}
	return nil
}

// decodeAttributes copies the attributes of body onto node. Blocks named
// in schema were already taken by PartialContent; any other block is an
// error.
func decodeAttributes(body hcl.Body, schema *hcl.BodySchema, node *topology.Node) error {
	attrs, err := bodyAttributes(body, schema)
	if err != nil {
		return err
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("property %q of %s: %w", name, node.Path(), diags)
		}
		node.SetAttr(name, val)
	}
	return nil
}

// bodyAttributes returns the attributes of a remain body. JustAttributes on
// a native syntax body also reports the blocks PartialContent already
// consumed, so those are read directly.
func bodyAttributes(body hcl.Body, schema *hcl.BodySchema) (hcl.Attributes, error) {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		attrs, diags := body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		return attrs, nil
	}

	for _, block := range syntaxBody.Blocks {
		if !hasBlockType(schema, block.Type) {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unexpected \"" + block.Type + "\" block",
				Detail:   "Only \"node\" blocks are allowed here.",
				Subject:  block.DefRange().Ptr(),
			}}
		}
	}
	attrs := make(hcl.Attributes, len(syntaxBody.Attributes))
	for name, attr := range syntaxBody.Attributes {
		attrs[name] = attr.AsHCLAttribute()
	}
	return attrs, nil
}

func hasBlockType(schema *hcl.BodySchema, typ string) bool {
	for _, b := range schema.Blocks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func translateImage(ib *imageBlock, filename string) (*image.Info, error) {
	flags, err := image.ParseFlags(ib.Flags)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", filename, err)
	}
	info := &image.Info{
		Name:     ib.Name,
		Firmware: ib.Firmware,
		Flags:    flags,
		Region:   ib.Region,
	}
	if info.Name == "" {
		info.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if info.EnableTimeout, err = parseTimeout(ib.EnableTimeout); err != nil {
		return nil, fmt.Errorf("image %s: enable_timeout: %w", filename, err)
	}
	if info.DisableTimeout, err = parseTimeout(ib.DisableTimeout); err != nil {
		return nil, fmt.Errorf("image %s: disable_timeout: %w", filename, err)
	}
	return info, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		var found []string
		if info.IsDir() {
			found, err = fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == ".hcl" {
			found = []string{path}
		}

		for _, f := range found {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}

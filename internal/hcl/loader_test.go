package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const socHCL = `
node "soc" {
  model = "test-soc"

  node "bridge" {
    compatible = ["passthrough-bridge"]

    node "region0" {
      compatible = ["region-manager"]
      engine     = "/soc/mgr"
      interfaces = ["/soc/clk"]
    }
  }
}
`

const periphHCL = `
node "mgr" {
  compatible = ["file-engine"]
}
`

func lookup(t *testing.T, tree *topology.Tree, raw string) *topology.Node {
	t.Helper()
	n, ok := tree.Lookup(nodepath.MustParse(raw))
	require.True(t, ok, "node %s not found", raw)
	return n
}

func TestParseTree(t *testing.T) {
	tree, err := NewLoader().ParseTree("soc.hcl", []byte(socHCL))
	require.NoError(t, err)

	soc := lookup(t, tree, "/soc")
	model, ok := soc.Attr("model")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("test-soc"), model)

	region := lookup(t, tree, "/soc/bridge/region0")
	assert.True(t, region.IsCompatible("region-manager"))
	assert.Equal(t, "/soc/bridge", region.Parent().Path().String())
	assert.Equal(t, "soc.hcl", tree.Source())

	refs, err := region.Strings("interfaces")
	require.NoError(t, err)
	assert.Equal(t, []string{"/soc/clk"}, refs)
}

func TestParseTreeKeepsAttributesBesideNestedNodes(t *testing.T) {
	src := `node "soc" { node "bridge0" { compatible = ["passthrough-bridge"] } }
node "board" {
  revision = 3
  node "fpga" {
    engine = "/board/mgr"
    node "region0" { compatible = ["region-manager"] }
  }
  node "mgr" { sink = "/dev/null" }
}`
	tree, err := NewLoader().ParseTree("t.hcl", []byte(src))
	require.NoError(t, err)

	bridge := lookup(t, tree, "/soc/bridge0")
	assert.True(t, bridge.IsCompatible("passthrough-bridge"))

	revision, ok := lookup(t, tree, "/board").Attr("revision")
	require.True(t, ok)
	assert.True(t, revision.RawEquals(cty.NumberIntVal(3)))

	engine, err := lookup(t, tree, "/board/fpga").Reference("engine", 0)
	require.NoError(t, err)
	assert.Equal(t, "/board/mgr", engine.String())
	lookup(t, tree, "/board/fpga/region0")
}

func TestParseTreeErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"syntax error", `node "soc" {`},
		{"duplicate node", `
node "soc" { a = 1 }
node "soc" { b = 2 }
`},
		{"unlabelled node", `node { }`},
		{"non-node block", `node "soc" { other { } }`},
		{"non-node block beside nodes", `node "soc" {
  node "a" {}
  other {}
}`},
		{"top-level non-node block", `other {}`},
		{"variable reference", `node "soc" { a = var.x }`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().ParseTree("bad.hcl", []byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadTreeMergesDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "soc.hcl"), []byte(socHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "periph.hcl"), []byte(periphHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	tree, err := NewLoader().LoadTree(context.Background(), dir)
	require.NoError(t, err)

	lookup(t, tree, "/soc/bridge/region0")
	mgr := lookup(t, tree, "/mgr")
	assert.True(t, mgr.IsCompatible("file-engine"))
}

func TestLoadTreeDeduplicatesPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "soc.hcl")
	require.NoError(t, os.WriteFile(file, []byte(socHCL), 0o644))

	_, err := NewLoader().LoadTree(context.Background(), dir, file)
	require.NoError(t, err, "a file reached twice must only be decoded once")
}

func TestLoadTreeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader().LoadTree(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = NewLoader().LoadTree(context.Background(), dir)
	assert.ErrorContains(t, err, "no .hcl topology files")
}

func TestParseImage(t *testing.T) {
	base, err := NewLoader().ParseTree("soc.hcl", []byte(socHCL))
	require.NoError(t, err)

	src := `
image {
  name            = "blinky"
  firmware        = "/lib/firmware/blinky.bin"
  flags           = ["partial", "compressed"]
  enable_timeout  = "250ms"
  disable_timeout = "1s"
  region          = "region0"
}

interfaces = ["/soc/bridge", "/a"]

node "a" { frequency = 100 }
`
	info, err := NewLoader().ParseImage(base, "blinky.hcl", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "blinky", info.Name)
	assert.Equal(t, "/lib/firmware/blinky.bin", info.Firmware)
	assert.True(t, info.Flags.Has(image.Partial|image.Compressed))
	assert.False(t, info.Flags.Has(image.Encrypted))
	assert.Equal(t, 250*time.Millisecond, info.EnableTimeout)
	assert.Equal(t, time.Second, info.DisableTimeout)
	assert.Equal(t, "region0", info.Region)

	require.NotNil(t, info.Overlay)
	assert.Equal(t, "overlay:/", info.Overlay.String())
	assert.Same(t, base, info.Overlay.Tree().Base())

	bridge, err := info.Overlay.Reference("interfaces", 0)
	require.NoError(t, err)
	assert.Equal(t, "/soc/bridge", bridge.String(), "base nodes take precedence")

	a, err := info.Overlay.Reference("interfaces", 1)
	require.NoError(t, err)
	assert.Equal(t, "overlay:/a", a.String())
}

func TestParseImageDefaults(t *testing.T) {
	info, err := NewLoader().ParseImage(nil, "images/plain.hcl", []byte(`image {}`))
	require.NoError(t, err)
	assert.Equal(t, "plain", info.Name)
	assert.Zero(t, info.Flags)
	assert.Zero(t, info.EnableTimeout)
	assert.NotNil(t, info.Overlay)
}

func TestParseImageErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"missing image block", `node "a" {}`},
		{"duplicate image block", "image {}\nimage {}"},
		{"unknown flag", `image { flags = ["turbo"] }`},
		{"bad timeout", `image { enable_timeout = "soon" }`},
		{"unknown image attribute", `image { colour = "red" }`},
		{"unexpected block", "image {}\nother {}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().ParseImage(nil, "bad.hcl", []byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadImageResolvesFirmwareRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blinky.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`image { firmware = "blinky.bin" }`), 0o644))

	info, err := NewLoader().LoadImage(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "blinky.bin"), info.Firmware)

	remote := filepath.Join(dir, "remote.hcl")
	require.NoError(t, os.WriteFile(remote, []byte(`image { firmware = "https://images.local/blinky.bin" }`), 0o644))
	info, err = NewLoader().LoadImage(context.Background(), nil, remote)
	require.NoError(t, err)
	assert.Equal(t, "https://images.local/blinky.bin", info.Firmware)

	_, err = NewLoader().LoadImage(context.Background(), nil, filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}

func TestFindUniqueBlock(t *testing.T) {
	blocks := hcl.Blocks{{Type: "node"}, {Type: "image"}}
	found, diags := FindUniqueBlock(blocks, "image")
	assert.False(t, diags.HasErrors())
	assert.Same(t, blocks[1], found)

	found, diags = FindUniqueBlock(blocks, "missing")
	assert.False(t, diags.HasErrors())
	assert.Nil(t, found)

	_, diags = FindUniqueBlock(append(blocks, &hcl.Block{Type: "image"}), "image")
	assert.True(t, diags.HasErrors())
}

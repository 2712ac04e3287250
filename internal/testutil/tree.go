package testutil

import (
	"testing"

	"github.com/specialistvlad/regiongate/internal/hcl"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/stretchr/testify/require"
)

// Tree parses an HCL topology document.
func Tree(t *testing.T, src string) *topology.Tree {
	t.Helper()
	tree, err := hcl.NewLoader().ParseTree(t.Name()+".hcl", []byte(src))
	require.NoError(t, err)
	return tree
}

// Node looks up a node that must exist.
func Node(t *testing.T, tree *topology.Tree, path string) *topology.Node {
	t.Helper()
	p, err := nodepath.Parse(path)
	require.NoError(t, err)
	n, ok := tree.Lookup(p)
	require.True(t, ok, "node %s not found", path)
	return n
}

// Image parses an HCL image document whose overlay resolves against base.
func Image(t *testing.T, base *topology.Tree, src string) *image.Info {
	t.Helper()
	info, err := hcl.NewLoader().ParseImage(base, t.Name()+".image.hcl", []byte(src))
	require.NoError(t, err)
	return info
}

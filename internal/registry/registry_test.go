package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/specialistvlad/regiongate/internal/testutil"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passModule struct{}

func (passModule) Register(r *Registry) {
	r.RegisterInterfaceDriver("test-bridge", &InterfaceDriver{
		New: func(context.Context, *topology.Node) (gateway.Ops, error) { return gateway.Ops{}, nil },
	})
	r.RegisterEngineDriver("test-engine", &EngineDriver{
		New: func(_ context.Context, n *topology.Node) (engine.Engine, error) {
			return testutil.NewFakeEngine(n.Name(), nil), nil
		},
	})
}

func TestDriverLookupUsesFirstMatchingTag(t *testing.T) {
	r := New(passModule{})
	tree := testutil.Tree(t, `
node "br" { compatible = ["vendor,unknown", "test-bridge"] }
node "mgr" { compatible = ["test-engine"] }
node "plain" {}
`)
	d, tag, ok := r.InterfaceDriverFor(testutil.Node(t, tree, "/br"))
	require.True(t, ok)
	assert.NotNil(t, d)
	assert.Equal(t, "test-bridge", tag)

	_, _, ok = r.InterfaceDriverFor(testutil.Node(t, tree, "/mgr"))
	assert.False(t, ok)
	_, tag, ok = r.EngineDriverFor(testutil.Node(t, tree, "/mgr"))
	require.True(t, ok)
	assert.Equal(t, "test-engine", tag)
	_, _, ok = r.EngineDriverFor(testutil.Node(t, tree, "/plain"))
	assert.False(t, ok)
}

func TestDuplicateDriverPanics(t *testing.T) {
	r := New(passModule{})
	assert.Panics(t, func() { passModule{}.Register(r) })
}

func TestValidateRegistry(t *testing.T) {
	ctx, _ := testutil.Context(t)
	r := New(passModule{})
	require.NoError(t, r.ValidateRegistry(ctx))

	r.RegisterInterfaceDriver("broken", &InterfaceDriver{})
	r.RegisterEngineDriver("test-bridge", &EngineDriver{New: func(context.Context, *topology.Node) (engine.Engine, error) { return nil, nil }})
	err := r.ValidateRegistry(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interface driver 'broken': missing constructor")
	assert.Contains(t, err.Error(), "compatible 'test-bridge' has both")
}

func TestRegionIDsReuseLowestFree(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.NextRegionID())
	assert.Equal(t, 1, r.NextRegionID())
	assert.Equal(t, 2, r.NextRegionID())
	r.ReleaseRegionID(1)
	assert.Equal(t, 1, r.NextRegionID())
	assert.Equal(t, 3, r.NextRegionID())
}

func TestRegionRegistration(t *testing.T) {
	r := New()
	tree := testutil.Tree(t, `
node "fabric" {
  node "region0" {}
  node "region1" {}
}
`)
	eng := testutil.NewFakeEngine("engine0", nil)

	id := r.NextRegionID()
	r0, err := region.New(eng, nil, region.WithID(id), region.WithNode(testutil.Node(t, tree, "/fabric/region0")))
	require.NoError(t, err)
	require.NoError(t, r.RegisterRegion(r0))

	dup, err := region.New(eng, nil, region.WithID(5))
	require.NoError(t, err)
	require.NoError(t, r.RegisterRegion(dup))
	again, err := region.New(eng, nil, region.WithID(5))
	require.NoError(t, err)
	assert.Error(t, r.RegisterRegion(again), "names are unique")

	sameNode, err := region.New(eng, nil, region.WithName("other"), region.WithNode(testutil.Node(t, tree, "/fabric/region0")))
	require.NoError(t, err)
	assert.Error(t, r.RegisterRegion(sameNode), "nodes are unique")

	got, ok := r.Region("region0")
	require.True(t, ok)
	assert.Same(t, r0, got)
	got, ok = r.RegionByNode(nodepath.MustParse("/fabric/region0"))
	require.True(t, ok)
	assert.Same(t, r0, got)

	got, ok = r.FindRegion(func(reg *region.Region) bool { return reg.ID() == 5 })
	require.True(t, ok)
	assert.Same(t, dup, got)

	assert.Equal(t, []string{"region0", "region5"}, regionNames(r.Regions()))

	r.UnregisterRegion(r0)
	_, ok = r.Region("region0")
	assert.False(t, ok)
	_, ok = r.RegionByNode(nodepath.MustParse("/fabric/region0"))
	assert.False(t, ok)
	assert.Equal(t, 0, r.NextRegionID(), "unregistering frees the id")
}

func TestInterfaceRegistration(t *testing.T) {
	r := New()
	rec := testutil.NewRecorder()
	tree := testutil.Tree(t, `
node "bridge" {
  node "region0" {}
}
`)
	br := rec.Interface(t, "bridge", "/bridge")
	require.NoError(t, r.RegisterInterface(br))
	assert.Error(t, r.RegisterInterface(rec.Interface(t, "other", "/bridge")))

	got, ok := r.InterfaceByParent(testutil.Node(t, tree, "/bridge/region0"))
	require.True(t, ok)
	assert.Same(t, br, got)

	_, ok = r.InterfaceByParent(tree.Root())
	assert.False(t, ok)

	clk := rec.Interface(t, "clk", "/a/clk")
	require.NoError(t, r.RegisterInterface(clk))
	assert.Equal(t, []*gateway.Interface{clk, br}, r.Interfaces())

	r.UnregisterInterface(br)
	_, ok = r.InterfaceByNode(nodepath.MustParse("/bridge"))
	assert.False(t, ok)
}

func TestEngineRegistration(t *testing.T) {
	r := New()
	eng := testutil.NewFakeEngine("mgr", nil)
	p := nodepath.MustParse("/soc/mgr")
	require.NoError(t, r.RegisterEngine(p, eng))
	assert.Error(t, r.RegisterEngine(p, eng))

	got, ok := r.EngineByNode(p)
	require.True(t, ok)
	assert.Same(t, eng, got)

	r.UnregisterEngine(p)
	_, ok = r.EngineByNode(p)
	assert.False(t, ok)
}

func regionNames(regs []*region.Region) []string {
	names := make([]string, 0, len(regs))
	for _, reg := range regs {
		names = append(names, reg.Name())
	}
	return names
}

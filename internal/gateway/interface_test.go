package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func mustNew(t *testing.T, name string, ops Ops) *Interface {
	t.Helper()
	i, err := New(name, nodepath.MustParse("/soc/"+name), ops)
	require.NoError(t, err)
	return i
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New("", nodepath.Root(), Ops{})
	assert.Error(t, err)
}

func TestAcquireIsExclusiveAndNonBlocking(t *testing.T) {
	ctx := context.Background()
	info := &image.Info{Name: "design"}
	i := mustNew(t, "br0", Ops{})

	lease, err := i.Acquire(ctx, info)
	require.NoError(t, err)
	assert.True(t, i.Held())
	assert.Same(t, info, i.Info())

	_, err = i.Acquire(ctx, &image.Info{})
	assert.ErrorIs(t, err, fault.ErrBusy)

	lease.Release()
	assert.False(t, i.Held())
	assert.Nil(t, i.Info())

	again, err := i.Acquire(ctx, nil)
	require.NoError(t, err)
	again.Release()
}

func TestConcurrentAcquireHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	i := mustNew(t, "br0", Ops{})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := i.Acquire(ctx, nil); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, fault.ErrBusy)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestReleaseRunsHookOnce(t *testing.T) {
	var released int
	i := mustNew(t, "br0", Ops{OnRelease: func() { released++ }})

	lease, err := i.Acquire(context.Background(), nil)
	require.NoError(t, err)
	lease.Release()
	lease.Release()

	assert.Equal(t, 1, released)
	assert.False(t, i.Held())
}

func TestSetEnabledDefaultsToPassThrough(t *testing.T) {
	i := mustNew(t, "br0", Ops{})
	require.NoError(t, i.SetEnabled(context.Background(), false))
	assert.True(t, i.Enabled())
	assert.Equal(t, "enabled", i.State())
}

func TestSetEnabledUsesHook(t *testing.T) {
	enabled := true
	i := mustNew(t, "br0", Ops{
		Enable:  func(e bool) error { enabled = e; return nil },
		Enabled: func() bool { return enabled },
	})

	require.NoError(t, i.SetEnabled(context.Background(), false))
	assert.Equal(t, "disabled", i.State())
	require.NoError(t, i.SetEnabled(context.Background(), true))
	assert.Equal(t, "enabled", i.State())
}

func TestApplyTopologySetup(t *testing.T) {
	tree := topology.NewTree("test")
	region, err := tree.Root().AddChild("region0")
	require.NoError(t, err)
	leaf, err := region.AddChild("clk0")
	require.NoError(t, err)
	leaf.SetAttr("frequency", cty.NumberIntVal(50000000))

	var seen []string
	setup := func(n *topology.Node) error {
		seen = append(seen, n.Path().String())
		return nil
	}

	clk := mustNew(t, "clk0", Ops{Setup: setup})
	other := mustNew(t, "br0", Ops{Setup: setup})
	hookless := mustNew(t, "clk0", Ops{})

	ctx := context.Background()
	require.NoError(t, clk.ApplyTopologySetup(ctx, region))
	require.NoError(t, other.ApplyTopologySetup(ctx, region))
	require.NoError(t, hookless.ApplyTopologySetup(ctx, region))
	require.NoError(t, clk.ApplyTopologySetup(ctx, nil))

	assert.Equal(t, []string{"/region0/clk0"}, seen)
}

func TestApplyTopologySetupWrapsFailure(t *testing.T) {
	tree := topology.NewTree("test")
	_, err := tree.Root().AddChild("clk0")
	require.NoError(t, err)

	cause := errors.New("frequency out of range")
	i := mustNew(t, "clk0", Ops{Setup: func(*topology.Node) error { return cause }})

	err = i.ApplyTopologySetup(context.Background(), tree.Root())
	assert.ErrorIs(t, err, fault.ErrSetupFailure)
	assert.ErrorIs(t, err, cause)
}

func TestDetachRefusedWhilePinned(t *testing.T) {
	ctx := context.Background()
	var removed bool
	i := mustNew(t, "br0", Ops{Remove: func() { removed = true }})

	lease, err := i.Acquire(ctx, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, i.Detach(ctx), fault.ErrBusy)
	assert.False(t, removed)

	lease.Release()
	require.NoError(t, i.Detach(ctx))
	assert.True(t, removed)
	require.NoError(t, i.Detach(ctx), "detach is idempotent")

	_, err = i.Acquire(ctx, nil)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestAcquireDuringDetachIsNotFound(t *testing.T) {
	ctx := context.Background()
	var i *Interface
	var acquireErr, detachErr error
	i = mustNew(t, "br0", Ops{Remove: func() {
		_, acquireErr = i.Acquire(ctx, nil)
		detachErr = i.Detach(ctx)
	}})

	require.NoError(t, i.Detach(ctx))
	assert.ErrorIs(t, acquireErr, fault.ErrNotFound, "an interface being detached is gone, not busy")
	assert.NoError(t, detachErr)
}

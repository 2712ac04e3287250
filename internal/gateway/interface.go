package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
	"golang.org/x/sync/semaphore"
)

// Ops is the capability record of an interface provider. Every hook is optional.
type Ops struct {
	// Enable opens (true) or closes (false) the gateway. Absent means the
	// gateway is a pass-through that is always enabled.
	Enable func(enable bool) error
	// Enabled reports the current gateway state. Absent means enabled.
	Enabled func() bool
	// Setup configures the gateway from its setup leaf in a topology node.
	Setup func(node *topology.Node) error
	// Remove puts the hardware into a safe state when the provider detaches.
	Remove func()
	// OnRelease runs each time a lease on the interface is released.
	OnRelease func()
}

// Interface is a single gateway.
type Interface struct {
	name string
	node nodepath.Path
	ops  Ops

	sem *semaphore.Weighted

	mu       sync.Mutex
	held     bool
	info     *image.Info
	detached bool
}

// New creates an interface bound to a topology node. The name must be
// non-empty: it is also the name of the setup leaf the interface reads.
func New(name string, node nodepath.Path, ops Ops) (*Interface, error) {
	if name == "" {
		return nil, errors.New("gateway: attempt to create interface with no name")
	}
	return &Interface{
		name: name,
		node: node,
		ops:  ops,
		sem:  semaphore.NewWeighted(1),
	}, nil
}

// Name returns the interface name.
func (i *Interface) Name() string { return i.name }

// Node returns the path of the topology node the interface was created for.
func (i *Interface) Node() nodepath.Path { return i.node }

// Held reports whether a lease on the interface is outstanding.
func (i *Interface) Held() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.held
}

// Info returns the image the interface is currently held for, or nil.
func (i *Interface) Info() *image.Info {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.info
}

// Acquire takes an exclusive lease on the interface for an image load. It
// never blocks: a held interface fails with fault.ErrBusy.
func (i *Interface) Acquire(ctx context.Context, info *image.Info) (*Lease, error) {
	logger := ctxlog.FromContext(ctx).With("interface", i.name)

	if i.isDetached() {
		return nil, fault.NotFound("interface", i.name)
	}

	if !i.sem.TryAcquire(1) {
		if i.isDetached() {
			return nil, fault.NotFound("interface", i.name)
		}
		logger.Debug("Interface already in use.")
		return nil, fault.Busy("interface", i.name)
	}

	i.mu.Lock()
	i.held = true
	i.info = info
	i.mu.Unlock()

	logger.Debug("Interface acquired.")
	return &Lease{iface: i}, nil
}

// SetEnabled opens or closes the gateway through its Enable hook.
func (i *Interface) SetEnabled(ctx context.Context, enable bool) error {
	ctxlog.FromContext(ctx).Debug("Setting interface state.", "interface", i.name, "enable", enable)
	if i.ops.Enable == nil {
		return nil
	}
	return i.ops.Enable(enable)
}

// Enabled reports the gateway state through the Enabled hook.
func (i *Interface) Enabled() bool {
	if i.ops.Enabled == nil {
		return true
	}
	return i.ops.Enabled()
}

// State renders the gateway state as "enabled" or "disabled".
func (i *Interface) State() string {
	if i.Enabled() {
		return "enabled"
	}
	return "disabled"
}

// ApplyTopologySetup passes the child of node named like the interface to
// the Setup hook. Without a hook or a matching child it does nothing.
func (i *Interface) ApplyTopologySetup(ctx context.Context, node *topology.Node) error {
	if i.ops.Setup == nil || node == nil {
		return nil
	}
	leaf := node.Child(i.name)
	if leaf == nil {
		return nil
	}

	ctxlog.FromContext(ctx).Debug("Applying interface setup.", "interface", i.name, "node", leaf.String())
	if err := i.ops.Setup(leaf); err != nil {
		return fault.SetupFailure(i.name, err)
	}
	return nil
}

// Detach runs the Remove hook and retires the interface. An interface that
// is still pinned by a lease cannot be detached.
func (i *Interface) Detach(ctx context.Context) error {
	i.mu.Lock()
	if i.detached {
		i.mu.Unlock()
		return nil
	}
	i.mu.Unlock()

	if !i.sem.TryAcquire(1) {
		if i.isDetached() {
			return nil
		}
		return fault.Busy("interface", i.name)
	}

	i.mu.Lock()
	i.detached = true
	i.mu.Unlock()

	if i.ops.Remove != nil {
		i.ops.Remove()
	}

	// The semaphore stays taken: a retired interface can never be leased again.
	ctxlog.FromContext(ctx).Debug("Interface detached.", "interface", i.name)
	return nil
}

func (i *Interface) isDetached() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.detached
}

func (i *Interface) release() {
	i.mu.Lock()
	i.held = false
	i.info = nil
	i.mu.Unlock()

	if i.ops.OnRelease != nil {
		i.ops.OnRelease()
	}
	i.sem.Release(1)
}

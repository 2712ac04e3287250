package resolver

import (
	"context"
	"fmt"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Interfaces looks up the live interfaces bound to topology nodes.
type Interfaces interface {
	InterfaceByNode(node nodepath.Path) (*gateway.Interface, bool)
	InterfaceByParent(node *topology.Node) (*gateway.Interface, bool)
}

// Topology resolves interface lists by walking the topology tree. It
// implements region.Resolver.
type Topology struct {
	interfaces Interfaces
}

// New creates a topology resolver backed by the given interface lookup.
func New(interfaces Interfaces) *Topology {
	return &Topology{interfaces: interfaces}
}

// Resolve acquires, in order, the interface bound to the region's parent
// node (if any) and every interface referenced by the overlay, or by the
// region node when the overlay declares none. Setup runs against the
// region node first and the overlay second.
func (t *Topology) Resolve(ctx context.Context, node *topology.Node, info *image.Info) (*gateway.List, error) {
	if node == nil {
		return nil, fmt.Errorf("resolve interfaces: region has no topology node")
	}
	logger := ctxlog.FromContext(ctx)

	var overlay *topology.Node
	if info != nil {
		overlay = info.Overlay
	}

	list := &gateway.List{}
	if err := t.collect(ctx, list, node, overlay, info); err != nil {
		list.ReleaseAll(ctx)
		return nil, err
	}

	if err := list.SetupAll(ctx, node); err != nil {
		list.ReleaseAll(ctx)
		return nil, err
	}
	if err := list.SetupAll(ctx, overlay); err != nil {
		list.ReleaseAll(ctx)
		return nil, err
	}

	logger.Debug("Interfaces resolved.", "node", node.String(), "interfaces", list.Names())
	return list, nil
}

// collect appends leases to list. On error the caller drains the list.
func (t *Topology) collect(ctx context.Context, list *gateway.List, node, overlay *topology.Node, info *image.Info) error {
	logger := ctxlog.FromContext(ctx)

	if parent, ok := t.interfaces.InterfaceByParent(node); ok {
		lease, err := parent.Acquire(ctx, info)
		if err != nil {
			return err
		}
		list.Append(lease)
		logger.Debug("Acquired parent interface.", "interface", parent.Name())
	}

	source := node
	if overlay.HasReferences(topology.PropInterfaces) {
		source = overlay
	}

	for i := 0; ; i++ {
		ref, err := source.Reference(topology.PropInterfaces, i)
		if err != nil {
			return err
		}
		if ref == nil {
			return nil
		}

		iface, ok := t.interfaces.InterfaceByNode(ref.Path())
		if !ok {
			return fault.NotFound("interface", ref.Path().String())
		}
		if list.Contains(ref.Path()) {
			continue
		}
		lease, err := iface.Acquire(ctx, info)
		if err != nil {
			return err
		}
		list.Append(lease)
	}
}

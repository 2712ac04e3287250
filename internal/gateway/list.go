package gateway

import (
	"context"
	"fmt"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// List is an ordered collection of leased interfaces. Insertion order is
// acquisition order. A List is not safe for concurrent mutation; its owner
// serializes access.
type List struct {
	leases []*Lease
}

// Append adds a lease at the tail.
func (l *List) Append(lease *Lease) {
	l.leases = append(l.leases, lease)
}

// Len returns the number of interfaces in the list.
func (l *List) Len() int { return len(l.leases) }

// Interfaces returns the interfaces in acquisition order.
func (l *List) Interfaces() []*Interface {
	out := make([]*Interface, len(l.leases))
	for i, lease := range l.leases {
		out[i] = lease.iface
	}
	return out
}

// Names returns the interface names in acquisition order.
func (l *List) Names() []string {
	out := make([]string, len(l.leases))
	for i, lease := range l.leases {
		out[i] = lease.iface.name
	}
	return out
}

// Contains reports whether an interface for the given node is in the list.
func (l *List) Contains(node nodepath.Path) bool {
	for _, lease := range l.leases {
		if lease.iface.node.Equal(node) {
			return true
		}
	}
	return false
}

// EnableAll enables every interface head to tail and stops at the first
// failure. Rolling back a partial enable is the caller's decision.
func (l *List) EnableAll(ctx context.Context) error {
	for _, lease := range l.leases {
		if err := lease.iface.SetEnabled(ctx, true); err != nil {
			return fmt.Errorf("enable interface %q: %w", lease.iface.name, err)
		}
	}
	return nil
}

// DisableAll disables every interface tail to head, the exact inverse of
// EnableAll, and stops at the first failure.
func (l *List) DisableAll(ctx context.Context) error {
	for idx := len(l.leases) - 1; idx >= 0; idx-- {
		iface := l.leases[idx].iface
		if err := iface.SetEnabled(ctx, false); err != nil {
			return fmt.Errorf("disable interface %q: %w", iface.name, err)
		}
	}
	return nil
}

// SetupAll applies topology setup from node to every interface head to
// tail and stops at the first failure.
func (l *List) SetupAll(ctx context.Context, node *topology.Node) error {
	for _, lease := range l.leases {
		if err := lease.iface.ApplyTopologySetup(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll releases every lease, whatever the interface state, and
// empties the list.
func (l *List) ReleaseAll(ctx context.Context) {
	if len(l.leases) == 0 {
		return
	}
	ctxlog.FromContext(ctx).Debug("Releasing interfaces.", "interfaces", l.Names())
	for _, lease := range l.leases {
		lease.Release()
	}
	l.leases = nil
}

// Package passthrough provides a bridge interface without hooks: it is
// always enabled and only takes part in exclusivity.
package passthrough

import (
	"context"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Compatible is the tag served by this driver.
const Compatible = "passthrough-bridge"

// Module implements the registry.Module interface for this package.
type Module struct{}

// NewPassthrough is the interface driver constructor.
func NewPassthrough(ctx context.Context, node *topology.Node) (gateway.Ops, error) {
	ctxlog.FromContext(ctx).Debug("Pass-through bridge probed.", "node", node.String())
	return gateway.Ops{}, nil
}

// Register registers the interface driver.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterInterfaceDriver(Compatible, &registry.InterfaceDriver{New: NewPassthrough})
}

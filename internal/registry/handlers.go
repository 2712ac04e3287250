package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// InterfaceDriver builds the capability record of an interface from its
// topology node.
type InterfaceDriver struct {
	// Name returns the interface name; nil means the node name.
	Name func(node *topology.Node) string
	New  func(ctx context.Context, node *topology.Node) (gateway.Ops, error)
}

// EngineDriver builds a programming engine from its topology node.
type EngineDriver struct {
	New func(ctx context.Context, node *topology.Node) (engine.Engine, error)
}

// RegisterInterfaceDriver registers the driver for nodes compatible with tag.
func (r *Registry) RegisterInterfaceDriver(tag string, driver *InterfaceDriver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.interfaceDrivers[tag]; exists {
		panic(fmt.Sprintf("interface driver for '%s' already registered", tag))
	}
	slog.Debug("Registering interface driver.", "compatible", tag)
	r.interfaceDrivers[tag] = driver
}

// RegisterEngineDriver registers the driver for nodes compatible with tag.
func (r *Registry) RegisterEngineDriver(tag string, driver *EngineDriver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engineDrivers[tag]; exists {
		panic(fmt.Sprintf("engine driver for '%s' already registered", tag))
	}
	slog.Debug("Registering engine driver.", "compatible", tag)
	r.engineDrivers[tag] = driver
}

// InterfaceDriverFor returns the driver of the first compatible tag of node
// that has one, and that tag.
func (r *Registry) InterfaceDriverFor(node *topology.Node) (*InterfaceDriver, string, bool) {
	tags, _ := node.Strings(topology.PropCompatible)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tag := range tags {
		if d, ok := r.interfaceDrivers[tag]; ok {
			return d, tag, true
		}
	}
	return nil, "", false
}

// EngineDriverFor returns the driver of the first compatible tag of node
// that has one, and that tag.
func (r *Registry) EngineDriverFor(node *topology.Node) (*EngineDriver, string, bool) {
	tags, _ := node.Strings(topology.PropCompatible)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tag := range tags {
		if d, ok := r.engineDrivers[tag]; ok {
			return d, tag, true
		}
	}
	return nil, "", false
}

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Module is the interface that all driver modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the drivers and the live objects of a single application
// instance. It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	interfaceDrivers map[string]*InterfaceDriver
	engineDrivers    map[string]*EngineDriver

	regions       map[string]*region.Region // by name
	regionsByNode map[string]*region.Region
	interfaces    map[string]*gateway.Interface // by node path
	engines       map[string]engine.Engine      // by node path
	ids           map[int]bool
}

// New creates and initializes a new Registry instance with the given modules.
func New(modules ...Module) *Registry {
	r := &Registry{
		interfaceDrivers: make(map[string]*InterfaceDriver),
		engineDrivers:    make(map[string]*EngineDriver),
		regions:          make(map[string]*region.Region),
		regionsByNode:    make(map[string]*region.Region),
		interfaces:       make(map[string]*gateway.Interface),
		engines:          make(map[string]engine.Engine),
		ids:              make(map[int]bool),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// NextRegionID reserves and returns the lowest free region id.
func (r *Registry) NextRegionID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := 0
	for r.ids[id] {
		id++
	}
	r.ids[id] = true
	return id
}

// ReleaseRegionID frees an id reserved by NextRegionID.
func (r *Registry) ReleaseRegionID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

// RegisterRegion makes a region visible for lookups. Names and nodes are unique.
func (r *Registry) RegisterRegion(reg *region.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.regions[reg.Name()]; exists {
		return fmt.Errorf("region %q already registered", reg.Name())
	}
	if node := reg.Node(); node != nil {
		key := node.Path().String()
		if _, exists := r.regionsByNode[key]; exists {
			return fmt.Errorf("a region is already registered for node %s", key)
		}
		r.regionsByNode[key] = reg
	}
	r.regions[reg.Name()] = reg
	r.ids[reg.ID()] = true
	return nil
}

// UnregisterRegion removes a region and frees its id.
func (r *Registry) UnregisterRegion(reg *region.Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.regions[reg.Name()] != reg {
		return
	}
	delete(r.regions, reg.Name())
	if node := reg.Node(); node != nil {
		delete(r.regionsByNode, node.Path().String())
	}
	delete(r.ids, reg.ID())
}

// Region looks a region up by name.
func (r *Registry) Region(name string) (*region.Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regions[name]
	return reg, ok
}

// RegionByNode looks a region up by the node it was attached from.
func (r *Registry) RegionByNode(node nodepath.Path) (*region.Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regionsByNode[node.String()]
	return reg, ok
}

// FindRegion returns the first region, in name order, for which match is true.
func (r *Registry) FindRegion(match func(*region.Region) bool) (*region.Region, bool) {
	for _, reg := range r.Regions() {
		if match(reg) {
			return reg, true
		}
	}
	return nil, false
}

// Regions returns every registered region sorted by name.
func (r *Registry) Regions() []*region.Region {
	r.mu.RLock()
	out := make([]*region.Region, 0, len(r.regions))
	for _, reg := range r.regions {
		out = append(out, reg)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// RegisterInterface makes an interface visible for lookups by its node.
func (r *Registry) RegisterInterface(iface *gateway.Interface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := iface.Node().String()
	if _, exists := r.interfaces[key]; exists {
		return fmt.Errorf("an interface is already registered for node %s", key)
	}
	r.interfaces[key] = iface
	return nil
}

// UnregisterInterface removes an interface.
func (r *Registry) UnregisterInterface(iface *gateway.Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := iface.Node().String()
	if r.interfaces[key] == iface {
		delete(r.interfaces, key)
	}
}

// InterfaceByNode looks an interface up by the node it was attached from.
func (r *Registry) InterfaceByNode(node nodepath.Path) (*gateway.Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	iface, ok := r.interfaces[node.String()]
	return iface, ok
}

// InterfaceByParent returns the interface attached from the parent of node.
func (r *Registry) InterfaceByParent(node *topology.Node) (*gateway.Interface, bool) {
	if node == nil || node.Parent() == nil {
		return nil, false
	}
	return r.InterfaceByNode(node.Parent().Path())
}

// Interfaces returns every registered interface sorted by node path.
func (r *Registry) Interfaces() []*gateway.Interface {
	r.mu.RLock()
	out := make([]*gateway.Interface, 0, len(r.interfaces))
	for _, iface := range r.interfaces {
		out = append(out, iface)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Node().String() < out[j].Node().String() })
	return out
}

// RegisterEngine records the engine attached from node.
func (r *Registry) RegisterEngine(node nodepath.Path, eng engine.Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := node.String()
	if _, exists := r.engines[key]; exists {
		return fmt.Errorf("an engine is already registered for node %s", key)
	}
	r.engines[key] = eng
	return nil
}

// UnregisterEngine forgets the engine attached from node.
func (r *Registry) UnregisterEngine(node nodepath.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, node.String())
}

// EngineByNode looks an engine up by the node it was attached from.
func (r *Registry) EngineByNode(node nodepath.Path) (engine.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[node.String()]
	return eng, ok
}

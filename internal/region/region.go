package region

import (
	"context"
	"errors"
	"sync"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/topology"
	"golang.org/x/sync/semaphore"
)

// Region is a reconfigurable hardware resource bound to a programming engine.
type Region struct {
	id       int
	name     string
	named    bool
	node     *topology.Node
	engine   engine.Engine
	resolver Resolver
	compat   *CompatID
	observer Observer

	// sem is the region's own exclusivity; at most one Program (or
	// ReleaseInterfaces) runs at a time.
	sem *semaphore.Weighted

	mu    sync.Mutex
	state State
	info  *image.Info
	list  *gateway.List
}

// New creates a region bound to eng. A nil resolver means the interface
// list is fixed at creation (see WithInterfaces); otherwise it is rebuilt
// by the resolver on every Program call.
func New(eng engine.Engine, resolver Resolver, opts ...Option) (*Region, error) {
	if eng == nil {
		return nil, errors.New("region: a programming engine is required")
	}
	r := &Region{
		name:     "region0",
		engine:   eng,
		resolver: resolver,
		sem:      semaphore.NewWeighted(1),
		list:     &gateway.List{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ID returns the region id.
func (r *Region) ID() int { return r.id }

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Node returns the topology node the region is bound to, or nil.
func (r *Region) Node() *topology.Node { return r.node }

// Engine returns the bound programming engine.
func (r *Region) Engine() engine.Engine { return r.engine }

// Dynamic reports whether the region resolves its interfaces on each Program.
func (r *Region) Dynamic() bool { return r.resolver != nil }

// CompatID returns the compatibility identifier, if the region has one.
func (r *Region) CompatID() (CompatID, bool) {
	if r.compat == nil {
		return CompatID{}, false
	}
	return *r.compat, true
}

// CompatString renders the compatibility identifier, or "" without one.
func (r *Region) CompatString() string {
	if r.compat == nil {
		return ""
	}
	return r.compat.String()
}

// State returns the current lifecycle state.
func (r *Region) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Info returns the image of the last successful Program, or nil.
func (r *Region) Info() *image.Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}

// Interfaces returns the interfaces currently in the region's list.
func (r *Region) Interfaces() []*gateway.Interface {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Interfaces()
}

// ReleaseInterfaces releases every interface held after a successful
// Program and clears the image info, allowing the region to be
// reprogrammed. It fails with fault.ErrBusy while a Program is in flight.
func (r *Region) ReleaseInterfaces(ctx context.Context) error {
	if !r.sem.TryAcquire(1) {
		return fault.Busy("region", r.name)
	}
	defer r.sem.Release(1)

	list := r.detachList(nil)
	r.mu.Lock()
	r.info = nil
	r.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Releasing region interfaces.", "region", r.name, "count", list.Len())
	list.ReleaseAll(ctx)
	return nil
}

// SetInterfaces replaces the interface list of a region without dynamic
// resolution, e.g. to re-populate it after a failed Program drained it.
// It fails with fault.ErrBusy while a Program is in flight.
func (r *Region) SetInterfaces(list *gateway.List) error {
	if r.resolver != nil {
		return errors.New("region: interfaces of a dynamic region are resolved on Program")
	}
	if !r.sem.TryAcquire(1) {
		return fault.Busy("region", r.name)
	}
	defer r.sem.Release(1)

	if list == nil {
		list = &gateway.List{}
	}
	r.mu.Lock()
	r.list = list
	r.mu.Unlock()
	return nil
}

// detachList swaps in an empty list and returns the previous one so it can
// be drained without r.mu; readers never see a list being released. When
// only is set, the swap happens only if it is still the current list.
func (r *Region) detachList(only *gateway.List) *gateway.List {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.list
	if only != nil && list != only {
		return only
	}
	r.list = &gateway.List{}
	return list
}

func (r *Region) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

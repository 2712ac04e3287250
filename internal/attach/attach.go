package attach

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/internal/resolver"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Option configures Attach.
type Option func(*config)

type config struct {
	observer region.Observer
}

// WithObserver registers obs on every region created by Attach.
func WithObserver(obs region.Observer) Option {
	return func(c *config) {
		c.observer = obs
	}
}

// Attachment holds the objects created by one Attach call.
type Attachment struct {
	reg        *registry.Registry
	engines    []nodepath.Path
	interfaces []*gateway.Interface
	regions    []*region.Region
	pending    []nodepath.Path
}

// Regions returns the regions created, in tree order.
func (a *Attachment) Regions() []*region.Region { return a.regions }

// Interfaces returns the interfaces created, in tree order.
func (a *Attachment) Interfaces() []*gateway.Interface { return a.interfaces }

// Pending returns the region-manager nodes left without a region because
// no programming engine could be found for them.
func (a *Attachment) Pending() []nodepath.Path { return a.pending }

// Attach builds engines, then interfaces, then regions from tree. On error
// everything created so far is detached again.
func Attach(ctx context.Context, tree *topology.Tree, reg *registry.Registry, opts ...Option) (*Attachment, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := ctxlog.FromContext(ctx)
	a := &Attachment{reg: reg}

	steps := []func(context.Context, *topology.Node) error{
		a.attachEngine,
		a.attachInterface,
		func(ctx context.Context, n *topology.Node) error { return a.attachRegion(ctx, n, cfg) },
	}
	for _, step := range steps {
		if err := tree.Walk(func(n *topology.Node) error { return step(ctx, n) }); err != nil {
			if derr := a.Detach(ctx); derr != nil {
				logger.Error("Failed to roll back partial attach.", "error", derr)
			}
			return nil, err
		}
	}

	logger.Info("✅ Topology attached.",
		"engines", len(a.engines),
		"interfaces", len(a.interfaces),
		"regions", len(a.regions),
		"pending", len(a.pending),
	)
	return a, nil
}

func (a *Attachment) attachEngine(ctx context.Context, n *topology.Node) error {
	driver, tag, ok := a.reg.EngineDriverFor(n)
	if !ok {
		return nil
	}
	eng, err := driver.New(ctx, n)
	if err != nil {
		return fmt.Errorf("attach engine %s (%s): %w", n.Path(), tag, err)
	}
	if err := a.reg.RegisterEngine(n.Path(), eng); err != nil {
		return err
	}
	a.engines = append(a.engines, n.Path())
	ctxlog.FromContext(ctx).Debug("Engine attached.", "node", n.Path().String(), "engine", eng.Name(), "compatible", tag)
	return nil
}

func (a *Attachment) attachInterface(ctx context.Context, n *topology.Node) error {
	driver, tag, ok := a.reg.InterfaceDriverFor(n)
	if !ok {
		return nil
	}
	ops, err := driver.New(ctx, n)
	if err != nil {
		return fmt.Errorf("attach interface %s (%s): %w", n.Path(), tag, err)
	}
	name := n.Name()
	if driver.Name != nil {
		name = driver.Name(n)
	}
	iface, err := gateway.New(name, n.Path(), ops)
	if err != nil {
		return fmt.Errorf("attach interface %s: %w", n.Path(), err)
	}
	if err := a.reg.RegisterInterface(iface); err != nil {
		return err
	}
	a.interfaces = append(a.interfaces, iface)
	ctxlog.FromContext(ctx).Debug("Interface attached.", "node", n.Path().String(), "interface", name, "compatible", tag)
	return nil
}

func (a *Attachment) attachRegion(ctx context.Context, n *topology.Node, cfg *config) error {
	if !n.IsCompatible(topology.CompatRegionManager) {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	eng, err := a.findEngine(n)
	if err != nil {
		return fmt.Errorf("attach region %s: %w", n.Path(), err)
	}
	if eng == nil {
		logger.Warn("No programming engine for region manager; leaving it pending.", "node", n.Path().String())
		a.pending = append(a.pending, n.Path())
		return nil
	}

	id := a.reg.NextRegionID()
	opts := []region.Option{
		region.WithID(id),
		region.WithNode(n),
	}
	if cfg.observer != nil {
		opts = append(opts, region.WithObserver(cfg.observer))
	}
	if raw, err := n.Strings(topology.PropCompatID); err != nil {
		a.reg.ReleaseRegionID(id)
		return fmt.Errorf("attach region %s: %w", n.Path(), err)
	} else if len(raw) > 0 {
		compat, err := region.ParseCompatID(raw[0])
		if err != nil {
			a.reg.ReleaseRegionID(id)
			return fmt.Errorf("attach region %s: %w", n.Path(), err)
		}
		opts = append(opts, region.WithCompatID(compat))
	}

	r, err := region.New(eng, resolver.New(a.reg), opts...)
	if err != nil {
		a.reg.ReleaseRegionID(id)
		return fmt.Errorf("attach region %s: %w", n.Path(), err)
	}
	if err := a.reg.RegisterRegion(r); err != nil {
		a.reg.ReleaseRegionID(id)
		return fmt.Errorf("attach region %s: %w", n.Path(), err)
	}
	a.regions = append(a.regions, r)
	logger.Debug("Region attached.", "node", n.Path().String(), "region", r.Name(), "engine", eng.Name())
	return nil
}

// findEngine walks from n towards the root and returns the engine
// referenced by the nearest region-manager node that names one. A nested
// region manager without its own reference inherits its ancestor's engine.
func (a *Attachment) findEngine(n *topology.Node) (engine.Engine, error) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if !cur.IsCompatible(topology.CompatRegionManager) || !cur.HasReferences(topology.PropEngine) {
			continue
		}
		target, err := cur.Reference(topology.PropEngine, 0)
		if err != nil {
			return nil, err
		}
		eng, ok := a.reg.EngineByNode(target.Path())
		if !ok {
			return nil, nil
		}
		return eng, nil
	}
	return nil, nil
}

// Detach releases and unregisters every region, then detaches and
// unregisters every interface, then forgets every engine. Errors are
// collected and teardown continues.
func (a *Attachment) Detach(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	var keptRegions []*region.Region
	for i := len(a.regions) - 1; i >= 0; i-- {
		r := a.regions[i]
		if err := r.ReleaseInterfaces(ctx); err != nil {
			errs = append(errs, fmt.Errorf("detach region %s: %w", r.Name(), err))
			keptRegions = append([]*region.Region{r}, keptRegions...)
			continue
		}
		a.reg.UnregisterRegion(r)
		logger.Debug("Region detached.", "region", r.Name())
	}
	a.regions = keptRegions

	var keptInterfaces []*gateway.Interface
	for i := len(a.interfaces) - 1; i >= 0; i-- {
		iface := a.interfaces[i]
		if err := iface.Detach(ctx); err != nil {
			errs = append(errs, fmt.Errorf("detach interface %s: %w", iface.Name(), err))
			keptInterfaces = append([]*gateway.Interface{iface}, keptInterfaces...)
			continue
		}
		a.reg.UnregisterInterface(iface)
	}
	a.interfaces = keptInterfaces

	// Engines stay registered while anything that may still use them is left.
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for i := len(a.engines) - 1; i >= 0; i-- {
		a.reg.UnregisterEngine(a.engines[i])
	}
	a.engines = nil
	a.pending = nil
	return nil
}

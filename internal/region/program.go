package region

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/image"
)

// Program loads info into the region.
//
// The call never blocks on a contended resource: a busy region, engine or
// interface fails with fault.ErrBusy. On failure everything acquired by
// this call is released in reverse order and the region is left Idle. On
// success the region is Programmed and its interfaces remain held.
func (r *Region) Program(ctx context.Context, info *image.Info) error {
	if info == nil {
		return errors.New("region: image info is required")
	}
	ctx = ctxlog.With(ctx, "region", r.name, "image", info.Name)
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	if !r.sem.TryAcquire(1) {
		logger.Debug("Region already in use.")
		err := fault.Busy("region", r.name)
		r.observe(ctx, info, started, nil, err)
		return err
	}

	list, err := r.program(ctx, info)
	r.sem.Release(1)

	r.observe(ctx, info, started, list, err)
	if err != nil {
		logger.Error("Failed to program region.", "error", err)
		return fmt.Errorf("program %s: %w", r.name, err)
	}
	logger.Info("✅ Region programmed.", "interfaces", list.Names(), "duration", time.Since(started))
	return nil
}

// program runs the state machine with the region lock held.
func (r *Region) program(ctx context.Context, info *image.Info) (*gateway.List, error) {
	logger := ctxlog.FromContext(ctx)
	prev := r.State()
	r.setState(Acquiring)

	lock, err := r.engine.TryLock(ctx)
	if err != nil {
		logger.Debug("Programming engine is busy.", "engine", r.engine.Name())
		r.setState(prev)
		return nil, err
	}

	r.mu.Lock()
	list := r.list
	r.mu.Unlock()

	if r.resolver != nil {
		list, err = r.resolve(ctx, info)
		if err != nil {
			r.engine.Unlock(lock)
			r.setState(prev)
			return nil, fmt.Errorf("get interfaces: %w", err)
		}
		r.mu.Lock()
		r.list = list
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.info = info
	r.mu.Unlock()
	r.setState(Reconfiguring)

	if err := list.DisableAll(ctx); err != nil {
		r.unwind(ctx, lock, list)
		return nil, err
	}

	logger.Debug("Loading image.", "engine", r.engine.Name(), "firmware", info.Location(), "flags", info.Flags)
	if err := r.engine.Load(ctx, lock, info); err != nil {
		r.unwind(ctx, lock, list)
		if fault.Kind(err) == nil {
			err = fault.DeviceFailure(r.engine.Name(), err)
		}
		return nil, fmt.Errorf("load image: %w", err)
	}

	if err := list.EnableAll(ctx); err != nil {
		r.unwind(ctx, lock, list)
		return nil, err
	}

	r.engine.Unlock(lock)
	r.setState(Programmed)
	return list, nil
}

// resolve rebuilds the interface list. Interfaces still held from an
// earlier successful Program block the rebuild until the caller releases
// them.
func (r *Region) resolve(ctx context.Context, info *image.Info) (*gateway.List, error) {
	r.mu.Lock()
	held := r.list.Names()
	r.mu.Unlock()
	if len(held) > 0 {
		return nil, fault.Busy("interface", held[0])
	}
	return r.resolver.Resolve(ctx, r.node, info)
}

// unwind releases what a failed call holds once the interface list is in
// place: the interfaces, the engine and the image info. A failed load never
// leaves interfaces held. The region lock is released by the caller.
func (r *Region) unwind(ctx context.Context, lock *engine.Lock, list *gateway.List) {
	ctxlog.FromContext(ctx).Debug("Unwinding failed program.")
	r.detachList(list).ReleaseAll(ctx)
	r.engine.Unlock(lock)

	r.mu.Lock()
	r.info = nil
	r.state = Idle
	r.mu.Unlock()
}

func (r *Region) observe(ctx context.Context, info *image.Info, started time.Time, list *gateway.List, err error) {
	if r.observer == nil {
		return
	}
	ev := Event{
		Region:   r.name,
		Image:    info.Name,
		Firmware: info.Location(),
		Outcome:  OutcomeProgrammed,
		Err:      err,
		Started:  started,
		Duration: time.Since(started),
	}
	if list != nil {
		ev.Interfaces = list.Names()
	}
	switch {
	case errors.Is(err, fault.ErrBusy):
		ev.Outcome = OutcomeBusy
	case err != nil:
		ev.Outcome = OutcomeFailed
	}
	r.observer.Observe(ctx, ev)
}

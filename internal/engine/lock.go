package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/fault"
	"golang.org/x/sync/semaphore"
)

// ErrStaleLock is returned when an operation presents a token that does
// not own the engine.
var ErrStaleLock = errors.New("engine: lock token does not own the engine")

// Lock is the token proving exclusive ownership of an engine.
type Lock struct {
	engine string
	seq    uint64
}

func (l *Lock) String() string {
	if l == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d", l.engine, l.seq)
}

// Exclusive is a non-blocking, token-based engine lock.
type Exclusive struct {
	name string
	sem  *semaphore.Weighted

	mu      sync.Mutex
	seq     uint64
	current *Lock
}

// NewExclusive creates an unlocked lock for the named engine.
func NewExclusive(name string) *Exclusive {
	return &Exclusive{name: name, sem: semaphore.NewWeighted(1)}
}

// TryLock takes the lock or fails with fault.ErrBusy.
func (e *Exclusive) TryLock(ctx context.Context) (*Lock, error) {
	if !e.sem.TryAcquire(1) {
		ctxlog.FromContext(ctx).Debug("Engine already locked.", "engine", e.name)
		return nil, fault.Busy("engine", e.name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.current = &Lock{engine: e.name, seq: e.seq}
	return e.current, nil
}

// Unlock releases the lock held by token. A stale or nil token is ignored.
func (e *Exclusive) Unlock(lock *Lock) {
	e.mu.Lock()
	if lock == nil || e.current != lock {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.mu.Unlock()
	e.sem.Release(1)
}

// Check verifies that token currently owns the lock.
func (e *Exclusive) Check(lock *Lock) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lock == nil || e.current != lock {
		return fmt.Errorf("%w (%s)", ErrStaleLock, lock)
	}
	return nil
}

// Locked reports whether the lock is currently held.
func (e *Exclusive) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/image"
)

// FakeEngine is an in-memory programming engine that records loads.
type FakeEngine struct {
	*engine.Exclusive

	name string
	rec  *Recorder

	mu sync.Mutex
	// LoadErr, when set, is returned by every Load.
	LoadErr error
	// Entered, when set, receives a value once a Load has started.
	Entered chan struct{}
	// Gate, when set, blocks Load until it is closed.
	Gate  chan struct{}
	loads []string
}

// NewFakeEngine creates an unlocked fake engine. rec may be nil.
func NewFakeEngine(name string, rec *Recorder) *FakeEngine {
	return &FakeEngine{Exclusive: engine.NewExclusive(name), name: name, rec: rec}
}

// Name returns the engine name.
func (e *FakeEngine) Name() string { return e.name }

// Load records the image and returns LoadErr.
func (e *FakeEngine) Load(ctx context.Context, lock *engine.Lock, info *image.Info) error {
	if err := e.Check(lock); err != nil {
		return err
	}
	if e.Entered != nil {
		e.Entered <- struct{}{}
	}
	if e.Gate != nil {
		<-e.Gate
	}

	e.mu.Lock()
	e.loads = append(e.loads, info.Name)
	err := e.LoadErr
	e.mu.Unlock()

	if e.rec != nil {
		if recErr := e.rec.Record("load:" + info.Name); recErr != nil && err == nil {
			err = recErr
		}
	}
	return err
}

// Loads returns the names of every image loaded so far.
func (e *FakeEngine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.loads))
	copy(out, e.loads)
	return out
}

package engine

import (
	"context"
	"time"

	"github.com/specialistvlad/regiongate/internal/image"
)

// Engine is a programming engine. TryLock never blocks; a held engine
// fails with fault.ErrBusy. Load may be slow and is not reentrant while
// locked.
type Engine interface {
	Name() string
	TryLock(ctx context.Context) (*Lock, error)
	Unlock(lock *Lock)
	Load(ctx context.Context, lock *Lock, info *image.Info) error
}

// Phase names reported through Progress.
const (
	PhaseInit     = "write_init"
	PhaseWrite    = "write"
	PhaseComplete = "write_complete"
)

// Progress describes how far an image load has come.
type Progress struct {
	// Phase is one of PhaseInit, PhaseWrite, PhaseComplete.
	Phase string

	BytesWritten int64
	TotalBytes   int64

	// Percentage is the completion percentage (0.0 to 100.0).
	Percentage float64

	ElapsedTime time.Duration
}

// ProgressCallback is called during a load. Implementations should return
// quickly; the load is blocked while the callback runs.
type ProgressCallback func(Progress)

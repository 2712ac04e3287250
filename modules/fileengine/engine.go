// Package fileengine provides a programming engine that streams images
// into a sink file or device node, such as a configuration port exposed
// by the kernel.
package fileengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/image"
)

// ErrNoImage is returned when an image has neither a buffer nor a firmware path.
var ErrNoImage = errors.New("fileengine: image has no buffer and no firmware path")

// Engine writes images to a sink path.
type Engine struct {
	*engine.Exclusive

	name   string
	sink   string
	config Config
}

// New creates an engine writing to sink.
//
// Example:
//
//	eng := fileengine.New("mgr0", "/dev/xdevcfg", fileengine.WithChunkSize(4096))
func New(name, sink string, opts ...Option) *Engine {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Engine{
		Exclusive: engine.NewExclusive(name),
		name:      name,
		sink:      sink,
		config:    config,
	}
}

// Name returns the engine name.
func (e *Engine) Name() string { return e.name }

// Sink returns the path images are written to.
func (e *Engine) Sink() string { return e.sink }

// Load streams the image into the sink. Partial images are appended to
// the sink; full images replace its contents.
func (e *Engine) Load(ctx context.Context, lock *engine.Lock, info *image.Info) error {
	if err := e.Check(lock); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx).With("engine", e.name, "sink", e.sink)

	src, total, err := e.open(ctx, info)
	if err != nil {
		return err
	}
	defer src.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if info.Flags.Has(image.Partial) {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	dst, err := os.OpenFile(e.sink, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	start := time.Now()
	logger.Debug("Writing image.", "total_bytes", total, "flags", info.Flags)
	e.report(engine.Progress{Phase: engine.PhaseInit, TotalBytes: total})

	written, err := e.copy(ctx, dst, src, total, start)
	if err == nil && e.config.Sync {
		err = dst.Sync()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write image after %d bytes: %w", written, err)
	}

	e.report(engine.Progress{
		Phase:        engine.PhaseComplete,
		BytesWritten: written,
		TotalBytes:   total,
		Percentage:   100,
		ElapsedTime:  time.Since(start),
	})
	logger.Debug("Image written.", "bytes", written, "duration", time.Since(start))
	return nil
}

func (e *Engine) copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, start time.Time) (int64, error) {
	buf := make([]byte, e.config.ChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			p := engine.Progress{
				Phase:        engine.PhaseWrite,
				BytesWritten: written,
				TotalBytes:   total,
				ElapsedTime:  time.Since(start),
			}
			if total > 0 {
				p.Percentage = float64(written) / float64(total) * 100
			}
			e.report(p)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func (e *Engine) report(p engine.Progress) {
	if e.config.ProgressCallback != nil {
		e.config.ProgressCallback(p)
	}
}

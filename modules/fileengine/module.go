package fileengine

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/regiongate/internal/engine"
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Compatible is the tag served by this driver.
const Compatible = "file-engine"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Options are applied to every engine the driver creates.
	Options []Option
}

// NewFileEngine is the engine driver constructor. The node must carry a
// `sink` path and may carry `chunk_size`, `sync` and `fetch_timeout`.
func (m *Module) NewFileEngine(_ context.Context, node *topology.Node) (engine.Engine, error) {
	sinks, err := node.Strings("sink")
	if err != nil {
		return nil, err
	}
	if len(sinks) != 1 || sinks[0] == "" {
		return nil, fmt.Errorf("file engine %s: exactly one sink path is required", node)
	}

	opts := append([]Option{}, m.Options...)
	if v, ok := node.Attr("chunk_size"); ok && !v.IsNull() {
		var size int
		if err := gocty.FromCtyValue(v, &size); err != nil {
			return nil, fmt.Errorf("file engine %s: chunk_size: %w", node, err)
		}
		opts = append(opts, WithChunkSize(size))
	}
	if v, ok := node.Attr("sync"); ok && !v.IsNull() {
		if v.Type() != cty.Bool {
			return nil, fmt.Errorf("file engine %s: sync must be a bool", node)
		}
		opts = append(opts, WithSync(v.True()))
	}
	if v, ok := node.Attr("fetch_timeout"); ok && !v.IsNull() {
		var raw string
		if err := gocty.FromCtyValue(v, &raw); err != nil {
			return nil, fmt.Errorf("file engine %s: fetch_timeout: %w", node, err)
		}
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("file engine %s: fetch_timeout: %w", node, err)
		}
		opts = append(opts, WithFetchTimeout(timeout))
	}
	return New(node.Name(), sinks[0], opts...), nil
}

// Register registers the engine driver.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngineDriver(Compatible, &registry.EngineDriver{New: m.NewFileEngine})
}

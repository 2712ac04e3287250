// Package clockgate provides a clock-generation gateway: an interface that
// gates a region's clock while it is reprogrammed and takes its output
// frequency from topology setup leaves.
package clockgate

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Compatible is the tag served by this driver.
const Compatible = "clock-gate"

// Property names read from the gate node and its setup leaves.
const (
	PropFrequency    = "frequency"
	PropMaxFrequency = "max_frequency"
)

// Gate is a gated clock output.
type Gate struct {
	name string

	mu        sync.Mutex
	enabled   bool
	frequency int64
	max       int64
}

// New creates a gate from its topology node. The gate starts enabled.
func New(node *topology.Node) (*Gate, error) {
	g := &Gate{name: node.Name(), enabled: true}
	var err error
	if g.frequency, err = readHz(node, PropFrequency); err != nil {
		return nil, err
	}
	if g.max, err = readHz(node, PropMaxFrequency); err != nil {
		return nil, err
	}
	if g.max > 0 && g.frequency > g.max {
		return nil, fmt.Errorf("clock gate %s: frequency %d exceeds max_frequency %d", g.name, g.frequency, g.max)
	}
	return g, nil
}

// Enable opens or closes the gate.
func (g *Gate) Enable(enable bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = enable
	return nil
}

// Enabled reports whether the clock is running.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Frequency returns the configured output frequency in Hz; 0 means unset.
func (g *Gate) Frequency() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frequency
}

// Setup applies the frequency of a setup leaf. A leaf without a frequency
// leaves the current one untouched.
func (g *Gate) Setup(leaf *topology.Node) error {
	hz, err := readHz(leaf, PropFrequency)
	if err != nil {
		return err
	}
	if hz == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.max > 0 && hz > g.max {
		return fmt.Errorf("frequency %d exceeds max_frequency %d", hz, g.max)
	}
	g.frequency = hz
	return nil
}

// Remove stops the clock.
func (g *Gate) Remove() {
	_ = g.Enable(false)
}

// Ops returns the capability record of the gate.
func (g *Gate) Ops() gateway.Ops {
	return gateway.Ops{
		Enable:  g.Enable,
		Enabled: g.Enabled,
		Setup:   g.Setup,
		Remove:  g.Remove,
	}
}

// readHz reads a non-negative whole number of Hz; numeric strings are accepted.
func readHz(node *topology.Node, prop string) (int64, error) {
	v, ok := node.Attr(prop)
	if !ok || v.IsNull() {
		return 0, nil
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("property %q of %s: %w", prop, node, err)
	}
	var hz int64
	if err := gocty.FromCtyValue(num, &hz); err != nil {
		return 0, fmt.Errorf("property %q of %s: %w", prop, node, err)
	}
	if hz < 0 {
		return 0, fmt.Errorf("property %q of %s must not be negative", prop, node)
	}
	return hz, nil
}

// Module implements the registry.Module interface for this package. Gates
// created by the driver are kept for inspection.
type Module struct {
	mu    sync.Mutex
	gates map[string]*Gate
}

// Gate returns the gate created for the node at path, if any.
func (m *Module) Gate(path string) (*Gate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gates[path]
	return g, ok
}

// NewClockGate is the interface driver constructor.
func (m *Module) NewClockGate(ctx context.Context, node *topology.Node) (gateway.Ops, error) {
	g, err := New(node)
	if err != nil {
		return gateway.Ops{}, err
	}
	m.mu.Lock()
	if m.gates == nil {
		m.gates = make(map[string]*Gate)
	}
	m.gates[node.Path().String()] = g
	m.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Clock gate probed.", "node", node.String(), "frequency", g.frequency)
	return g.Ops(), nil
}

// Register registers the interface driver.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterInterfaceDriver(Compatible, &registry.InterfaceDriver{New: m.NewClockGate})
}

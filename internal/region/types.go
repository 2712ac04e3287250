package region

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// State is the lifecycle state of a region.
type State int

const (
	Idle State = iota
	Acquiring
	Reconfiguring
	// Programmed is the idle state reached after a successful Program.
	Programmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Reconfiguring:
		return "reconfiguring"
	case Programmed:
		return "programmed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Resolver assembles the interface list of a region for an image. On
// failure it must leave no interface held.
type Resolver interface {
	Resolve(ctx context.Context, node *topology.Node, info *image.Info) (*gateway.List, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, node *topology.Node, info *image.Info) (*gateway.List, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, node *topology.Node, info *image.Info) (*gateway.List, error) {
	return f(ctx, node, info)
}

// CompatID identifies which images a region accepts. It is an opaque
// comparison token of two 64-bit halves.
type CompatID struct {
	High uint64
	Low  uint64
}

// String renders the id as 32 lowercase hex digits.
func (c CompatID) String() string {
	return fmt.Sprintf("%016x%016x", c.High, c.Low)
}

// ParseCompatID parses the 32-hex-digit form produced by String.
func ParseCompatID(s string) (CompatID, error) {
	if len(s) != 32 {
		return CompatID{}, fmt.Errorf("compat id %q must be 32 hex digits", s)
	}
	high, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return CompatID{}, fmt.Errorf("compat id %q: %w", s, err)
	}
	low, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return CompatID{}, fmt.Errorf("compat id %q: %w", s, err)
	}
	return CompatID{High: high, Low: low}, nil
}

// Outcome values reported in an Event.
const (
	OutcomeProgrammed = "programmed"
	OutcomeFailed     = "failed"
	OutcomeBusy       = "busy"
)

// Event describes one finished Program call.
type Event struct {
	Region     string
	Image      string
	Firmware   string
	Outcome    string
	Interfaces []string
	Err        error
	Started    time.Time
	Duration   time.Duration
}

// Observer is notified after every Program call. Observers must not call
// back into the region.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans an event out to several observers in order.
type Observers []Observer

// Observe notifies every observer.
func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}

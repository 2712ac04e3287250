package testutil

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/specialistvlad/regiongate/internal/topology"
	"github.com/stretchr/testify/require"
)

// ErrInjected is returned by every hook failure injected through Recorder.Fail.
var ErrInjected = errors.New("injected failure")

// Recorder logs interface hook calls and engine loads in call order.
//
// Events have the forms "enable:<name>", "disable:<name>",
// "setup:<name>:<leaf>", "release:<name>", "remove:<name>" and
// "load:<image>".
type Recorder struct {
	mu     sync.Mutex
	events []string
	fail   map[string]bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[string]bool)}
}

// Fail makes the hook producing event return ErrInjected.
func (r *Recorder) Fail(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[event] = true
}

// Record appends an event and reports the injected failure for it, if any.
func (r *Recorder) Record(event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if r.fail[event] {
		return fmt.Errorf("%s: %w", event, ErrInjected)
	}
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events that start with prefix.
func (r *Recorder) Filter(prefix string) []string {
	var out []string
	for _, ev := range r.Events() {
		if len(ev) >= len(prefix) && ev[:len(prefix)] == prefix {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets recorded events; injected failures stay.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Ops returns a capability record whose every hook is recorded.
func (r *Recorder) Ops(name string) gateway.Ops {
	return gateway.Ops{
		Enable: func(enable bool) error {
			if enable {
				return r.Record("enable:" + name)
			}
			return r.Record("disable:" + name)
		},
		Setup: func(leaf *topology.Node) error {
			return r.Record(fmt.Sprintf("setup:%s:%s", name, leaf))
		},
		Remove:    func() { _ = r.Record("remove:" + name) },
		OnRelease: func() { _ = r.Record("release:" + name) },
	}
}

// Interface creates a recorded interface bound to the node at path.
func (r *Recorder) Interface(t *testing.T, name, path string) *gateway.Interface {
	t.Helper()
	iface, err := gateway.New(name, nodepath.MustParse(path), r.Ops(name))
	require.NoError(t, err)
	return iface
}

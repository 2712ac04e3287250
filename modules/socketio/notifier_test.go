package socketio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayload(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := NewPayload(region.Event{
		Region:     "region0",
		Image:      "blinky",
		Firmware:   "blinky.bin",
		Outcome:    region.OutcomeFailed,
		Interfaces: []string{"a"},
		Err:        errors.New("boom"),
		Started:    started,
		Duration:   1500 * time.Millisecond,
	})
	assert.Equal(t, "region0", p.Region)
	assert.Equal(t, "boom", p.Error)
	assert.Equal(t, "2026-01-02T03:04:05Z", p.Started)
	assert.Equal(t, int64(1500), p.DurationMS)
}

func TestNotifierEmitsUntilClosed(t *testing.T) {
	type emitted struct {
		event   string
		payload Payload
	}
	var got []emitted
	closes := 0
	n := newNotifier(DefaultEvent,
		func(event string, p Payload) { got = append(got, emitted{event, p}) },
		func() { closes++ },
	)

	n.Observe(context.Background(), region.Event{Region: "region0", Outcome: region.OutcomeProgrammed})
	n.Close()
	n.Close()
	n.Observe(context.Background(), region.Event{Region: "region0", Outcome: region.OutcomeBusy})

	require.Len(t, got, 1)
	assert.Equal(t, DefaultEvent, got[0].event)
	assert.Equal(t, region.OutcomeProgrammed, got[0].payload.Outcome)
	assert.Empty(t, got[0].payload.Error)
	assert.Equal(t, 1, closes)
}

func TestDialRejectsBadURL(t *testing.T) {
	_, err := Dial(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	c := defaultConfig()
	for _, opt := range []Option{WithNamespace("/fpga"), WithEvent("ev"), WithConnectTimeout(time.Second), WithInsecureSkipVerify(), WithNamespace("")} {
		opt(&c)
	}
	assert.Equal(t, Config{Namespace: "/fpga", Event: "ev", ConnectTimeout: time.Second, InsecureSkipVerify: true}, c)
}

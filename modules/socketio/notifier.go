// Package socketio publishes region program results to a socket.io server.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/region"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event name program results are emitted under.
const DefaultEvent = "region_program"

// Config holds the notifier configuration.
type Config struct {
	Namespace          string
	Event              string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

func defaultConfig() Config {
	return Config{
		Namespace:      "/",
		Event:          DefaultEvent,
		ConnectTimeout: 15 * time.Second,
	}
}

// Option is a functional option for configuring the Notifier.
type Option func(*Config)

// WithNamespace sets the socket.io namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		if ns != "" {
			c.Namespace = ns
		}
	}
}

// WithEvent sets the emitted event name.
func WithEvent(event string) Option {
	return func(c *Config) {
		if event != "" {
			c.Event = event
		}
	}
}

// WithConnectTimeout bounds how long Dial waits for the connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ConnectTimeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify() Option {
	return func(c *Config) {
		c.InsecureSkipVerify = true
	}
}

// Payload is the body of an emitted event.
type Payload struct {
	Region     string   `json:"region"`
	Image      string   `json:"image"`
	Firmware   string   `json:"firmware,omitempty"`
	Outcome    string   `json:"outcome"`
	Interfaces []string `json:"interfaces,omitempty"`
	Error      string   `json:"error,omitempty"`
	Started    string   `json:"started"`
	DurationMS int64    `json:"duration_ms"`
}

// NewPayload projects a region event.
func NewPayload(ev region.Event) Payload {
	p := Payload{
		Region:     ev.Region,
		Image:      ev.Image,
		Firmware:   ev.Firmware,
		Outcome:    ev.Outcome,
		Interfaces: ev.Interfaces,
		Started:    ev.Started.UTC().Format(time.RFC3339Nano),
		DurationMS: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return p
}

// Notifier emits one socket.io event per region program attempt. It
// implements region.Observer.
type Notifier struct {
	event string

	mu         sync.Mutex
	closed     bool
	emit       func(event string, payload Payload)
	disconnect func()
}

// Dial connects to the socket.io server at rawURL.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Notifier, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", rawURL)
	logger.Debug("Connecting event notifier.")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if config.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(config.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(config.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", config.ConnectTimeout)
	}

	return newNotifier(config.Event,
		func(event string, payload Payload) { io.Emit(event, payload) },
		func() { io.Disconnect() },
	), nil
}

func newNotifier(event string, emit func(string, Payload), disconnect func()) *Notifier {
	return &Notifier{event: event, emit: emit, disconnect: disconnect}
}

// Observe emits ev. Events observed after Close are dropped.
func (n *Notifier) Observe(ctx context.Context, ev region.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	ctxlog.FromContext(ctx).Debug("Emitting program event.", "event", n.event, "outcome", ev.Outcome)
	n.emit(n.event, NewPayload(ev))
}

// Close disconnects from the server.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.disconnect()
}

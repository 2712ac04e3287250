package fileengine

import (
	"net/http"
	"time"

	"github.com/specialistvlad/regiongate/internal/engine"
)

// Config holds the engine configuration.
type Config struct {
	// ProgressCallback is called during a load to report progress (optional)
	ProgressCallback engine.ProgressCallback

	// ChunkSize is the number of bytes written per step
	ChunkSize int

	// Sync flushes the sink to stable storage after a load
	Sync bool

	// HTTPClient fetches firmware given as an http(s) URL
	HTTPClient *http.Client
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize:  64 * 1024,
		Sync:       true,
		HTTPClient: newHTTPClient(0),
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithProgressCallback sets a callback function to track load progress.
//
// Example:
//
//	eng := fileengine.New("mgr0", "/dev/xdevcfg",
//	    fileengine.WithProgressCallback(func(p engine.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback engine.ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithChunkSize sets the write chunk size. Non-positive values are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithSync controls whether the sink is synced after a load.
func WithSync(sync bool) Option {
	return func(c *Config) {
		c.Sync = sync
	}
}

// WithHTTPClient sets the client used for remote firmware. A nil client is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// WithFetchTimeout bounds each remote firmware request.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPClient = newHTTPClient(timeout)
	}
}

package fileengine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/image"
)

// newHTTPClient returns the client used to fetch firmware published over
// HTTP. A zero timeout leaves requests bounded by the load context only.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// open returns a reader over the image bitstream and its size. The size is
// -1 when the source does not announce it.
func (e *Engine) open(ctx context.Context, info *image.Info) (io.ReadCloser, int64, error) {
	if len(info.Buf) > 0 {
		return io.NopCloser(bytes.NewReader(info.Buf)), int64(len(info.Buf)), nil
	}
	if info.Firmware == "" {
		return nil, 0, ErrNoImage
	}
	if isRemote(info.Firmware) {
		return e.fetch(ctx, info.Firmware)
	}

	f, err := os.Open(info.Firmware)
	if err != nil {
		return nil, 0, fmt.Errorf("open firmware: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat firmware: %w", err)
	}
	return f, st.Size(), nil
}

func (e *Engine) fetch(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Fetching firmware.", "url", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create firmware request: %w", err)
	}
	resp, err := e.config.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch firmware: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("failed to fetch firmware: unexpected status %s", resp.Status)
	}

	logger.Debug("Firmware response received.", "status", resp.Status, "content_length", resp.ContentLength)
	return resp.Body, resp.ContentLength, nil
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

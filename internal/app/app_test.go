package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/hcl"
	"github.com/specialistvlad/regiongate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topologyHCL = `
node "soc" {
  node "mgr0" {
    compatible = ["file-engine"]
    sink       = "SINK"
    sync       = false
  }
  node "bridge0" {
    compatible = ["passthrough-bridge"]

    node "region0" {
      compatible = ["region-manager"]
      engine     = "/soc/mgr0"
      compat_id  = "0000000000000001000000000000abcd"
      interfaces = ["/soc/clk0"]

      node "clk0" { frequency = 100000000 }
    }
  }
  node "clk0" {
    compatible    = ["clock-gate"]
    max_frequency = 200000000
  }
}
`

const imageHCL = `
image {
  name     = "blinky"
  firmware = "blinky.bin"
  flags    = ["partial"]
}
node "clk0" { frequency = 150000000 }
`

type fixture struct {
	dir   string
	sink  string
	image string
	app   *App
	logs  *testutil.SafeBuffer
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:   dir,
		sink:  filepath.Join(dir, "sink.bin"),
		image: filepath.Join(dir, "images", "blinky.hcl"),
		logs:  &testutil.SafeBuffer{},
	}
	topo := filepath.Join(dir, "topology")
	require.NoError(t, os.MkdirAll(topo, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.image), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(topo, "soc.hcl"), []byte(strings.ReplaceAll(topologyHCL, "SINK", f.sink)), 0o644))
	require.NoError(t, os.WriteFile(f.image, []byte(imageHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(f.image), "blinky.bin"), []byte("bitstream"), 0o644))

	cfg.TopologyPaths = []string{topo}
	cfg.LogLevel = "debug"
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	f.app, err = NewApp(context.Background(), f.logs, config, hcl.NewLoader())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.app.Close(context.Background())
		if os.Getenv("REGIONGATE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), f.logs.String())
		}
	})
	return f
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)

	cfg, err := NewConfig(Config{TopologyPaths: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	_, err = NewConfig(Config{TopologyPaths: []string{"x"}, LogFormat: "xml"})
	assert.Error(t, err)
	_, err = NewConfig(Config{TopologyPaths: []string{"x"}, LogLevel: "trace"})
	assert.Error(t, err)
	_, err = NewConfig(Config{TopologyPaths: []string{"x"}, Port: 70000})
	assert.Error(t, err)
}

func TestNewAppAttachesTopology(t *testing.T) {
	f := newFixture(t, Config{})

	regions := f.app.RegionStatuses()
	require.Len(t, regions, 1)
	assert.Equal(t, RegionStatus{
		Name:       "region0",
		Node:       "/soc/bridge0/region0",
		State:      "idle",
		Engine:     "mgr0",
		CompatID:   "0000000000000001000000000000abcd",
		Interfaces: []string{},
	}, regions[0])

	assert.Equal(t, []InterfaceStatus{
		{Name: "bridge0", Node: "/soc/bridge0", State: "enabled"},
		{Name: "clk0", Node: "/soc/clk0", State: "enabled"},
	}, f.app.InterfaceStatuses())
	assert.Contains(t, f.logs.String(), "Topology attached.")
}

func TestNewAppFailsOnMissingTopology(t *testing.T) {
	cfg, err := NewConfig(Config{TopologyPaths: []string{filepath.Join(t.TempDir(), "missing")}})
	require.NoError(t, err)
	_, err = NewApp(context.Background(), &bytes.Buffer{}, cfg, hcl.NewLoader())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load topology")
}

func TestProgramKeepAndRelease(t *testing.T) {
	f := newFixture(t, Config{JournalPath: filepath.Join(t.TempDir(), "journal.db")})
	ctx := context.Background()

	r, err := f.app.Program(ctx, ProgramRequest{Image: f.image, Keep: true})
	require.NoError(t, err)
	assert.Equal(t, "region0", r.Name())

	got, err := os.ReadFile(f.sink)
	require.NoError(t, err)
	assert.Equal(t, "bitstream", string(got))

	status := f.app.RegionStatuses()[0]
	assert.Equal(t, "programmed", status.State)
	assert.Equal(t, "blinky", status.Image)
	assert.Equal(t, []string{"bridge0", "clk0"}, status.Interfaces)

	_, err = f.app.Program(ctx, ProgramRequest{Image: f.image})
	require.ErrorIs(t, err, fault.ErrBusy)

	require.NoError(t, f.app.Release(ctx, "region0"))
	_, err = f.app.Program(ctx, ProgramRequest{Image: f.image})
	require.NoError(t, err)
	for _, s := range f.app.InterfaceStatuses() {
		assert.False(t, s.Held, "interfaces are released without keep")
	}

	entries, err := f.app.Journal().List(ctx, "region0", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"programmed", "busy", "programmed"},
		[]string{entries[2].Outcome, entries[1].Outcome, entries[0].Outcome})

	assert.ErrorIs(t, f.app.Release(ctx, "nope"), fault.ErrNotFound)
	_, err = f.app.Program(ctx, ProgramRequest{Region: "nope", Image: f.image})
	assert.ErrorIs(t, err, fault.ErrNotFound)
	_, err = f.app.Program(ctx, ProgramRequest{})
	assert.Error(t, err)
}

func TestProgramSelectsRegionByNodePath(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	r, err := f.app.Program(ctx, ProgramRequest{Region: "/soc/bridge0/region0", Image: f.image})
	require.NoError(t, err)
	assert.Equal(t, "region0", r.Name())

	_, err = f.app.Program(ctx, ProgramRequest{Region: "/soc/bridge0", Image: f.image})
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestStatusServer(t *testing.T) {
	f := newFixture(t, Config{})
	srv := httptest.NewServer(f.app.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post := func(path string, body any) (*http.Response, map[string]any) {
		t.Helper()
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(buf))
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	resp, out := post("/regions/region0/program", ProgramRequest{Image: f.image, Keep: true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "programmed", out["state"])

	resp, out = post("/regions/region0/program", ProgramRequest{Image: f.image})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, out["error"], "busy")

	resp, _ = post("/regions/missing/release", struct{}{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = post("/regions/region0/release", struct{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/interfaces")
	require.NoError(t, err)
	defer resp.Body.Close()
	var ifaces []InterfaceStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ifaces))
	require.Len(t, ifaces, 2)
	assert.False(t, ifaces[0].Held)

	resp, err = http.Get(srv.URL + "/regions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var regions []RegionStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regions))
	require.Len(t, regions, 1)
	assert.Equal(t, "region0", regions[0].Name)
}

func TestServeStopsOnCancel(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Error(t, f.app.Serve(context.Background()), "serving needs a port")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f.app.config.Port = l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", f.app.config.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStatusForErrorKinds(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(fault.Busy("region", "r")))
	assert.Equal(t, http.StatusNotFound, statusFor(fault.NotFound("region", "r")))
	assert.Equal(t, http.StatusBadGateway, statusFor(fault.DeviceFailure("mgr", assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

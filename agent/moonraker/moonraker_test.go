//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package moonraker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/common/schema"
	"github.com/reach3d/reachlink/common/transport"
)

func TestDefaultTransportUsesDeviceTimeout(t *testing.T) {
	c, err := New(WithURL(global.DefaultMoonrakerURL))
	require.NoError(t, err)
	assert.Equal(t, global.DeviceTimeout, c.client.Timeout())
}

func pinHostHealth(t *testing.T) {
	t.Helper()
	orig := hostHealth
	m, d := 41.5, 73.0
	hostHealth = func() (*float64, *float64) { return &m, &d }
	t.Cleanup(func() { hostHealth = orig })
}

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	tr, err := transport.New(transport.WithRetries(1))
	require.NoError(t, err)
	c, err := New(WithURL(url), WithTransport(tr))
	require.NoError(t, err)
	return c
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name          string
		printDuration float64
		totalDuration float64
		want          float64
	}{
		{"zero total", 50, 0, 0},
		{"missing total", 50, -1, 0},
		{"halfway", 50, 100, 50},
		{"overrun clamps to 100", 150, 100, 100},
		{"negative print clamps to 0", -5, 100, 0},
		{"complete", 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progressPercent(tt.printDuration, tt.totalDuration)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestMapJobState(t *testing.T) {
	assert.Equal(t, schema.JobStateIdle, MapJobState("standby"))
	assert.Equal(t, schema.JobStatePrinting, MapJobState("printing"))
	assert.Equal(t, schema.JobStatePaused, MapJobState("paused"))
	assert.Equal(t, schema.JobStateError, MapJobState("error"))

	for _, s := range []string{"", "complete", "cancelled", "PRINTING", "busy"} {
		assert.Equal(t, schema.JobStateUnknown, MapJobState(s), "input %q", s)
	}
}

func TestGetStatus(t *testing.T) {
	pinHostHealth(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/printer/objects/query", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":{"status":{
			"extruder":{"temperature":210.4,"target":210},
			"heater_bed":{"temperature":60.1,"target":60},
			"print_stats":{"filename":"benchy.gcode","total_duration":1200,"print_duration":300,"state":"printing"},
			"system_stats":{"cputime":5.2,"cpu_percent":17.5}
		}}}`))
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)
	snap := c.GetStatus()
	require.NotNil(t, snap)

	require.NotNil(t, snap.Temperatures.Nozzle)
	assert.InDelta(t, 210.4, *snap.Temperatures.Nozzle, 1e-9)
	require.NotNil(t, snap.Temperatures.Bed)
	assert.InDelta(t, 60.1, *snap.Temperatures.Bed, 1e-9)
	assert.Nil(t, snap.Temperatures.Chamber)

	assert.Equal(t, "benchy.gcode", snap.Job.Filename)
	assert.InDelta(t, 25.0, snap.Job.Progress, 1e-9)
	assert.Equal(t, int64(300), snap.Job.ElapsedSeconds)
	assert.Equal(t, int64(1200), snap.Job.TotalSeconds)
	assert.Equal(t, schema.JobStatePrinting, snap.Job.State)

	require.NotNil(t, snap.SystemHealth.CPUPercent)
	assert.InDelta(t, 17.5, *snap.SystemHealth.CPUPercent, 1e-9)
	require.NotNil(t, snap.SystemHealth.MemoryPercent)
	assert.InDelta(t, 41.5, *snap.SystemHealth.MemoryPercent, 1e-9)
	require.NotNil(t, snap.SystemHealth.DiskPercent)
	assert.InDelta(t, 73.0, *snap.SystemHealth.DiskPercent, 1e-9)
}

func TestGetStatusUnknownState(t *testing.T) {
	pinHostHealth(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"status":{"print_stats":{"state":"complete"}}}}`))
	}))
	defer ts.Close()

	snap := newClient(t, ts.URL).GetStatus()
	require.NotNil(t, snap)
	assert.Equal(t, schema.JobStateUnknown, snap.Job.State)
}

func TestGetStatusFailureReturnsNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	assert.Nil(t, newClient(t, ts.URL).GetStatus())
}

func TestGetStatusMalformedBodyReturnsNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	assert.Nil(t, newClient(t, ts.URL).GetStatus())
}

func TestExecute(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)
	result, errCode := c.Execute("printer.gcode.script", map[string]any{"script": "M109 S200"}, "")

	assert.Empty(t, errCode)
	assert.Equal(t, "/printer/gcode/script", gotPath)
	assert.Equal(t, map[string]any{"script": "M109 S200"}, gotBody)
	assert.Equal(t, map[string]any{"result": "ok"}, result)
}

func TestExecuteDeviceFailureIsData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)
	result, errCode := c.Execute("printer.emergency_stop", nil, "")

	assert.Equal(t, schema.ErrorCodeDevice, errCode)
	assert.NotNil(t, result)
}

func TestSameSubnet24(t *testing.T) {
	assert.True(t, sameSubnet24("10.0.0.9", "10.0.0.5"))
	assert.False(t, sameSubnet24("10.0.1.9", "10.0.0.5"))
	assert.False(t, sameSubnet24("bogus", "10.0.0.5"))
	assert.False(t, sameSubnet24("10.0.0.9", ""))
	assert.False(t, sameSubnet24("2001:db8::1", "10.0.0.5"))
}

func TestTargetBaseRouting(t *testing.T) {
	tr, err := transport.New(transport.WithRetries(1))
	require.NoError(t, err)
	c, err := New(WithURL("http://127.0.0.1:7125"), WithPrinterIP("10.0.0.5"), WithTransport(tr))
	require.NoError(t, err)

	// Same /24: the agent is co-located with the printer, loopback wins.
	assert.Equal(t, "http://127.0.0.1:7125", c.targetBase("10.0.0.9"))
	// Different /24: reach the printer through its LAN address.
	assert.Equal(t, "http://10.0.0.5:7125", c.targetBase("10.0.1.9"))
	// No originator: loopback.
	assert.Equal(t, "http://127.0.0.1:7125", c.targetBase(""))

	// No known LAN address: always loopback.
	noLAN, err := New(WithURL("http://127.0.0.1:7125"), WithTransport(tr))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7125", noLAN.targetBase("10.0.1.9"))
}

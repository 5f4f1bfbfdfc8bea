//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package moonraker

import (
	"encoding/json"
	"net/http"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/reach3d/reachlink/common/schema"
)

// objectQueryResponse mirrors the slice of /printer/objects/query the
// agent asks for.
type objectQueryResponse struct {
	Result struct {
		Status struct {
			Extruder struct {
				Temperature *float64 `json:"temperature"`
			} `json:"extruder"`
			HeaterBed struct {
				Temperature *float64 `json:"temperature"`
			} `json:"heater_bed"`
			PrintStats struct {
				Filename      string  `json:"filename"`
				TotalDuration float64 `json:"total_duration"`
				PrintDuration float64 `json:"print_duration"`
				State         string  `json:"state"`
			} `json:"print_stats"`
			SystemStats struct {
				CPUPercent *float64 `json:"cpu_percent"`
			} `json:"system_stats"`
		} `json:"status"`
	} `json:"result"`
}

// GetStatus queries the device for one telemetry snapshot. It returns nil
// on any failure: telemetry being unavailable for a tick is not fatal.
func (c *Client) GetStatus() *schema.TelemetrySnapshot {
	data, err := c.client.Do(http.MethodGet, c.queryURL(), nil, "")
	if err != nil {
		c.logger.Warn().Err(err).Msg("device status query failed")
		return nil
	}
	if data == nil {
		c.logger.Warn().Msg("device status query returned an empty response")
		return nil
	}

	var resp objectQueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("device status response is not valid JSON")
		return nil
	}

	status := resp.Result.Status
	snap := &schema.TelemetrySnapshot{
		Temperatures: schema.Temperatures{
			Nozzle: status.Extruder.Temperature,
			Bed:    status.HeaterBed.Temperature,
			// No chamber sensor on the supported machines.
			Chamber: nil,
		},
		Job: schema.JobInfo{
			Filename:       status.PrintStats.Filename,
			Progress:       progressPercent(status.PrintStats.PrintDuration, status.PrintStats.TotalDuration),
			ElapsedSeconds: int64(status.PrintStats.PrintDuration),
			TotalSeconds:   int64(status.PrintStats.TotalDuration),
			State:          MapJobState(status.PrintStats.State),
		},
		SystemHealth: schema.SystemHealth{
			CPUPercent: status.SystemStats.CPUPercent,
		},
	}

	// The device API does not expose memory or disk usage; the agent runs
	// on the printer, so read them from the host.
	snap.SystemHealth.MemoryPercent, snap.SystemHealth.DiskPercent = hostHealth()

	return snap
}

// progressPercent clamps print progress into [0, 100], treating an
// unknown total duration as zero progress.
func progressPercent(printDuration, totalDuration float64) float64 {
	if totalDuration <= 0 {
		return 0
	}
	p := printDuration / totalDuration * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// MapJobState maps the device's job-state vocabulary onto the fixed
// telemetry enumeration. Anything unrecognized is "unknown".
func MapJobState(state string) string {
	switch state {
	case "standby":
		return schema.JobStateIdle
	case "printing":
		return schema.JobStatePrinting
	case "paused":
		return schema.JobStatePaused
	case "error":
		return schema.JobStateError
	}
	return schema.JobStateUnknown
}

// hostHealth is a variable so tests can pin the host readings.
var hostHealth = func() (memoryPercent, diskPercent *float64) {
	if vm, err := mem.VirtualMemory(); err == nil {
		memoryPercent = &vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		diskPercent = &du.UsedPercent
	}
	return memoryPercent, diskPercent
}

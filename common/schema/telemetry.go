//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package schema

// Job states reported in telemetry. Device-side vocabularies that do not
// map onto one of these are reported as JobStateUnknown.
const (
	JobStateIdle     = "idle"
	JobStatePrinting = "printing"
	JobStatePaused   = "paused"
	JobStateError    = "error"
	JobStateUnknown  = "unknown"
)

// Temperatures holds the current hotend/bed/chamber readings in Celsius.
// Pointers because a sensor may simply not exist on a given machine.
type Temperatures struct {
	Nozzle  *float64 `json:"nozzle"`
	Bed     *float64 `json:"bed"`
	Chamber *float64 `json:"chamber"`
}

// JobInfo describes the print job currently known to the device.
type JobInfo struct {
	Filename       string  `json:"filename"`
	Progress       float64 `json:"progress"`
	ElapsedSeconds int64   `json:"elapsedTime"`
	TotalSeconds   int64   `json:"totaltime"`
	State          string  `json:"state"`
}

// SystemHealth carries host resource usage alongside the printer data.
type SystemHealth struct {
	CPUPercent    *float64 `json:"cpuPercent"`
	MemoryPercent *float64 `json:"memoryPercent"`
	DiskPercent   *float64 `json:"diskPercent"`
}

// TelemetrySnapshot is one complete reading of the device, produced fresh
// each telemetry tick and discarded after sending.
type TelemetrySnapshot struct {
	Temperatures Temperatures `json:"temperatures"`
	Job          JobInfo      `json:"job"`
	SystemHealth SystemHealth `json:"systemHealth"`
}

// TelemetryReport is the relay wire format wrapping a snapshot.
type TelemetryReport struct {
	PrinterID    string       `json:"printerId"`
	Timestamp    int64        `json:"timestamp"`
	Temperatures Temperatures `json:"temperatures"`
	Job          JobInfo      `json:"job"`
	SystemHealth SystemHealth `json:"systemHealth"`
	Errors       []string     `json:"errors"`
	LogTail      []string     `json:"logTail"`
}

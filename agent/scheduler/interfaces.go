//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package scheduler

import "github.com/reach3d/reachlink/common/schema"

// RelayChannel is the subset of the relay client the scheduler drives.
type RelayChannel interface {
	RegisterHeartbeat(uptime int64) error
	SendTelemetry(snapshot *schema.TelemetrySnapshot) error
	RefreshToken() error
}

// StoreChannel is the queue-store side of heartbeat and status writes.
type StoreChannel interface {
	UpdateHeartbeat(uptime int64, status string) error
	WriteStatus(snapshot *schema.TelemetrySnapshot) error
}

// CommandChannel is one source of queued commands. The relay and the
// queue-store both implement it; the scheduler polls whichever subset is
// configured without special-casing hybrid mode.
type CommandChannel interface {
	Name() string
	// Pull returns the next queued command, or nil when the queue is empty.
	Pull() (*schema.QueuedCommand, error)
	// PushResult records a result on the channel. It must succeed before
	// the command is acknowledged.
	PushResult(result schema.CommandResult) error
	// Ack removes a fully processed command from the channel.
	Ack(requestID string) error
}

// DeviceProxy executes against the local device-control API.
type DeviceProxy interface {
	GetStatus() *schema.TelemetrySnapshot
	Execute(command string, params map[string]any, originatorIP string) (result any, errorCode string)
}

// ResultJournal remembers completed commands across redeliveries.
type ResultJournal interface {
	MarkCompleted(result schema.CommandResult) error
	Completed(requestID string) (*schema.CommandResult, bool)
}

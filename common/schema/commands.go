//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package schema

const (
	ResultStatusCompleted = "completed"
	ResultStatusFailed    = "failed"
)

// ErrorCodeDevice marks a command that reached the device API but failed
// there (network error, non-2xx, unparseable reply).
const ErrorCodeDevice = "device_error"

// QueuedCommand is one command waiting for the agent, keyed by a
// caller-assigned request id. The verb is dot-separated
// (e.g. "printer.gcode.script") and maps onto a device API path.
type QueuedCommand struct {
	RequestID    string         `json:"requestId"`
	Command      string         `json:"command"`
	Params       map[string]any `json:"params"`
	UserID       string         `json:"userId,omitempty"`
	OriginatorIP string         `json:"userIp,omitempty"`
}

// CommandResult reports the outcome of one QueuedCommand. It is always
// written back to the command's source channel before the command is
// deleted there, never after.
type CommandResult struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Result    any    `json:"result,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// CommandPullRequest asks the relay for the next queued command.
type CommandPullRequest struct {
	PrinterID string `json:"printerId"`
}

// CommandPullResponse carries at most one command. A nil Request means the
// queue is empty, which is not an error.
type CommandPullResponse struct {
	Request *QueuedCommand `json:"request,omitempty"`
}

// CommandPushRequest reports a result back to the relay.
type CommandPushRequest struct {
	PrinterID string        `json:"printerId"`
	Result    CommandResult `json:"result"`
}

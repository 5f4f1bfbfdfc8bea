//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package schema

// HeartbeatRecord is the liveness announcement posted to the relay.
// Timestamp is in milliseconds since the epoch; Session identifies one
// agent process lifetime so the relay can spot restarts.
type HeartbeatRecord struct {
	PrinterID string `json:"printerId"`
	UserID    string `json:"userId,omitempty"`
	Session   string `json:"session"`
	Uptime    int64  `json:"uptime"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

// HeartbeatResponse is the relay's acknowledgement.
type HeartbeatResponse struct {
	NextCheckIn int64 `json:"nextCheckIn,omitempty"`
}

// StoreHeartbeat is the parallel heartbeat written into the queue-store,
// independent of the relay heartbeat.
type StoreHeartbeat struct {
	Connected     bool   `json:"connected"`
	LastHeartbeat string `json:"lastHeartbeat"`
	Uptime        int64  `json:"uptime"`
	Status        string `json:"status"`
}

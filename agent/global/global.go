//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package global provides constants and configuration for the reach-link
// agent that can be imported by any other package.
package global

import "time"

const (
	Name        = "reach-link-agent"
	Version     = "1.2.0"
	Description = "reach-link printer agent"
)

const (
	// TickInterval is the scheduler's wakeup cadence. Individual actions
	// run on their own intervals checked against this tick.
	TickInterval = 1 * time.Second

	DefaultHeartbeatInterval   = 60 // seconds
	DefaultTelemetryInterval   = 10
	DefaultCommandPollInterval = 5
	DefaultRefreshMargin       = 600

	DefaultHealthPort = 8080

	// RelayTimeout bounds one attempt against the relay; StoreTimeout and
	// DeviceTimeout do the same for the queue-store and the device API.
	RelayTimeout  = 10 * time.Second
	StoreTimeout  = 5 * time.Second
	DeviceTimeout = 10 * time.Second

	DefaultMoonrakerURL = "http://127.0.0.1:7125"
	DefaultStoreURL     = "https://reach3d-default-rtdb.firebaseio.com"

	// MoonrakerPort is used when routing a command to the printer's LAN
	// address instead of the local device API.
	MoonrakerPort = 7125

	// JournalFile is the completed-command journal, created under the
	// configured data directory.
	JournalFile = "reach-link-journal.db"
)

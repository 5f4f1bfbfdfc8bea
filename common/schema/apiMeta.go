//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package schema

// Relay endpoints used by the agent. All are POST and JSON over HTTPS.
const (
	EndpointRegister    = "/api/reach-link/register"
	EndpointTelemetry   = "/api/reach-link/printer-data"
	EndpointCommandPull = "/api/reach-link/commands/pull"
	EndpointCommandPush = "/api/reach-link/commands/push"
	EndpointAuthRefresh = "/api/reach-link/auth/refresh"
)

// Queue-store subtree names under /printers/{printerId}/. The store speaks
// REST with a .json suffix and the credential in the query string.
const (
	StorePathQueue     = "queue"
	StorePathResults   = "commandResults"
	StorePathHeartbeat = "heartbeat"
	StorePathStatus    = "status"
)

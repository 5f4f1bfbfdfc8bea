//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package communications

import (
	"fmt"
	"net/http"
	"time"

	"github.com/reach3d/reachlink/common/schema"
)

// SendTelemetry pushes one snapshot to the relay. Best effort beyond the
// transport's built-in retries; the next tick produces a fresh snapshot.
func (c *Communications) SendTelemetry(snapshot *schema.TelemetrySnapshot) error {
	if snapshot == nil {
		return nil
	}

	report := schema.TelemetryReport{
		PrinterID:    c.conf.PrinterID,
		Timestamp:    time.Now().UnixMilli(),
		Temperatures: snapshot.Temperatures,
		Job:          snapshot.Job,
		SystemHealth: snapshot.SystemHealth,
		Errors:       []string{},
		LogTail:      []string{},
	}

	if _, err := c.client.Do(http.MethodPost, c.url(schema.EndpointTelemetry), report, c.conf.Token); err != nil {
		return fmt.Errorf("send telemetry: %w", err)
	}

	c.logger.Debug().Str("state", snapshot.Job.State).Msg("telemetry sent")
	return nil
}

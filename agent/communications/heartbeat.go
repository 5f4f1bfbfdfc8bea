//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package communications

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/common/schema"
)

// RegisterHeartbeat announces liveness and uptime to the relay.
func (c *Communications) RegisterHeartbeat(uptime int64) error {
	record := schema.HeartbeatRecord{
		PrinterID: c.conf.PrinterID,
		UserID:    c.conf.UserID,
		Session:   c.session,
		Uptime:    uptime,
		Version:   global.Version,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := c.client.Do(http.MethodPost, c.url(schema.EndpointRegister), record, c.conf.Token)
	if err != nil {
		return fmt.Errorf("register heartbeat: %w", err)
	}

	var resp schema.HeartbeatResponse
	if data != nil {
		if err := json.Unmarshal(data, &resp); err != nil {
			// The heartbeat landed, a garbled acknowledgement is not worth a retry.
			c.logger.Warn().Err(err).Msg("unparseable heartbeat acknowledgement")
			return nil
		}
	}

	c.logger.Debug().Int64("next_check_in", resp.NextCheckIn).Msg("heartbeat registered")
	return nil
}

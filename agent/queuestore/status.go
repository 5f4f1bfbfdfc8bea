//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package queuestore

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/reach3d/reachlink/common/schema"
)

// UpdateHeartbeat writes the store-side heartbeat document. Independent
// of the relay heartbeat; both run when both channels are configured.
func (s *Store) UpdateHeartbeat(uptime int64, status string) error {
	hb := schema.StoreHeartbeat{
		Connected:     true,
		LastHeartbeat: time.Now().Format(time.RFC3339),
		Uptime:        uptime,
		Status:        status,
	}
	_, err := s.client.Do(http.MethodPatch, s.pathURL(schema.StorePathHeartbeat), hb, "")
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// WriteStatus patches the printer's status document. A write that is
// structurally identical to the last successful one is skipped to bound
// write volume against the store.
func (s *Store) WriteStatus(snapshot *schema.TelemetrySnapshot) error {
	if snapshot == nil {
		return nil
	}
	if s.lastStatus != nil && reflect.DeepEqual(s.lastStatus, snapshot) {
		s.logger.Debug().Msg("status unchanged, skipping store write")
		return nil
	}

	_, err := s.client.Do(http.MethodPatch, s.pathURL(schema.StorePathStatus), snapshot, "")
	if err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	copied := *snapshot
	s.lastStatus = &copied
	return nil
}

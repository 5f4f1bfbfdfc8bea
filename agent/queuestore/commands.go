//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package queuestore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/reach3d/reachlink/common/schema"
)

// ReadCommands fetches the printer's pending command subtree. A missing
// or null subtree is an empty queue, not an error. Entries are decoded
// one at a time: an undecodable entry is deleted from the store rather
// than returned, so one bad write can never block the queue behind it.
func (s *Store) ReadCommands() (map[string]schema.QueuedCommand, error) {
	data, err := s.client.Do(http.MethodGet, s.pathURL(schema.StorePathQueue), nil, "")
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	if data == nil || string(data) == "null" {
		return map[string]schema.QueuedCommand{}, nil
	}

	entries := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal command queue: %w", err)
	}

	commands := make(map[string]schema.QueuedCommand, len(entries))
	for id, raw := range entries {
		var cmd schema.QueuedCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.logger.Warn().Err(err).Str("request_id", id).Msg("discarding undecodable queue entry")
			if delErr := s.DeleteCommand(id); delErr != nil {
				s.logger.Warn().Err(delErr).Str("request_id", id).Msg("failed to delete undecodable queue entry")
			}
			continue
		}
		// The request id is the entry's key in the store.
		cmd.RequestID = id
		commands[id] = cmd
	}
	return commands, nil
}

// DeleteCommand removes one queue entry after it has been fully
// processed and its result durably recorded.
func (s *Store) DeleteCommand(requestID string) error {
	_, err := s.client.Do(http.MethodDelete, s.pathURL(schema.StorePathQueue, requestID), nil, "")
	if err != nil {
		return fmt.Errorf("delete command %s: %w", requestID, err)
	}
	return nil
}

// WriteResult records a command result under the commandResults subtree.
// Callers must write the result before deleting the command, so a crash
// between the two duplicates the (idempotent) write instead of losing it.
func (s *Store) WriteResult(result schema.CommandResult) error {
	if result.Timestamp == 0 {
		result.Timestamp = time.Now().UnixMilli()
	}
	_, err := s.client.Do(http.MethodPut, s.pathURL(schema.StorePathResults, result.RequestID), result, "")
	if err != nil {
		return fmt.Errorf("write result %s: %w", result.RequestID, err)
	}
	return nil
}

// Name implements the scheduler's CommandChannel.
func (s *Store) Name() string {
	return "store"
}

// Pull returns one pending command, lowest request id first so redelivery
// order is stable across polls. Nil means the queue is empty.
func (s *Store) Pull() (*schema.QueuedCommand, error) {
	commands, err := s.ReadCommands()
	if err != nil {
		return nil, err
	}
	if len(commands) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(commands))
	for id := range commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cmd := commands[ids[0]]
	return &cmd, nil
}

// PushResult implements the scheduler's CommandChannel.
func (s *Store) PushResult(result schema.CommandResult) error {
	return s.WriteResult(result)
}

// Ack implements the scheduler's CommandChannel by deleting the entry.
func (s *Store) Ack(requestID string) error {
	return s.DeleteCommand(requestID)
}

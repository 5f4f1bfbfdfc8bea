//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package scheduler

import (
	"github.com/reach3d/reachlink/common/schema"
)

func (s *Scheduler) heartbeat(uptime int64) {
	if s.relay != nil {
		s.observe("heartbeat", s.relay.RegisterHeartbeat(uptime))
	}
	if s.store != nil && !s.stopped.Load() {
		s.observe("store heartbeat", s.store.UpdateHeartbeat(uptime, "online"))
	}
}

func (s *Scheduler) telemetry() {
	snapshot := s.device.GetStatus()
	if snapshot == nil {
		s.logger.Debug().Msg("device unreachable, skipping telemetry this cycle")
		return
	}
	if s.relay != nil {
		s.observe("telemetry", s.relay.SendTelemetry(snapshot))
	}
	if s.store != nil && !s.stopped.Load() {
		s.observe("store status", s.store.WriteStatus(snapshot))
	}
}

// pollCommands checks each channel in priority order and processes at most
// one command per cycle. Anything left queued is picked up on the next
// polling cadence.
func (s *Scheduler) pollCommands() {
	for _, channel := range s.channels {
		if s.stopped.Load() {
			return
		}
		command, err := channel.Pull()
		if err != nil {
			s.observe("pull "+channel.Name(), err)
			continue
		}
		if command == nil {
			continue
		}
		s.processCommand(channel, command)
		return
	}
}

func (s *Scheduler) processCommand(channel CommandChannel, command *schema.QueuedCommand) {
	log := s.logger.With().
		Str("channel", channel.Name()).
		Str("request_id", command.RequestID).
		Logger()

	if command.Command == "" {
		log.Warn().Msg("discarding malformed command with no verb")
		s.observe("ack "+channel.Name(), channel.Ack(command.RequestID))
		return
	}

	// A command that was executed but whose ack got lost comes back with
	// the same request id. Replay the recorded result instead of running
	// the device call a second time.
	if s.journal != nil {
		if previous, ok := s.journal.Completed(command.RequestID); ok {
			log.Info().Msg("redelivered command, replaying recorded result")
			if err := channel.PushResult(*previous); err != nil {
				s.observe("push "+channel.Name(), err)
				return
			}
			s.observe("ack "+channel.Name(), channel.Ack(command.RequestID))
			return
		}
	}

	log.Info().Str("command", command.Command).Msg("executing command")
	result, errorCode := s.device.Execute(command.Command, command.Params, command.OriginatorIP)

	outcome := schema.CommandResult{
		RequestID: command.RequestID,
		Status:    schema.ResultStatusCompleted,
		Result:    result,
		Timestamp: s.clock().UnixMilli(),
	}
	if errorCode != "" {
		outcome.Status = schema.ResultStatusFailed
		outcome.ErrorCode = errorCode
	}

	// The result must be recorded before the command is removed from the
	// queue. If the push fails the command stays queued and the whole
	// sequence reruns on a later cycle.
	if err := channel.PushResult(outcome); err != nil {
		s.observe("push "+channel.Name(), err)
		return
	}
	if s.journal != nil {
		if err := s.journal.MarkCompleted(outcome); err != nil {
			log.Warn().Err(err).Msg("failed to journal completed command")
		}
	}
	s.observe("ack "+channel.Name(), channel.Ack(command.RequestID))
}

func (s *Scheduler) refreshCredential() {
	s.logger.Info().Msg("store credential near expiry, refreshing")
	s.observe("token refresh", s.relay.RefreshToken())
}

//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/agent/token"
	"github.com/reach3d/reachlink/common/transport"
)

// Scheduler owns the agent loop. A one-second ticker drives four
// independently phased timers (heartbeat, telemetry, command polling and
// credential refresh); every remote action is fire-and-forget from the
// loop's point of view, so a slow or failing endpoint never starves the
// others beyond the current tick.
type Scheduler struct {
	logger  zerolog.Logger
	conf    *global.Config
	tokens  *token.Manager
	relay   RelayChannel
	store   StoreChannel
	device  DeviceProxy
	journal ResultJournal

	channels []CommandChannel
	clock    func() time.Time
	stopped  atomic.Bool

	// startedAt is unix seconds, atomic because the health endpoint
	// reads uptime from its own goroutine while the loop reseeds it.
	startedAt       atomic.Int64
	lastHeartbeat   int64
	lastTelemetry   int64
	lastCommandPoll int64
}

type Option func(s *Scheduler)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithConfig(conf *global.Config) Option {
	return func(s *Scheduler) {
		s.conf = conf
	}
}

func WithTokenManager(tokens *token.Manager) Option {
	return func(s *Scheduler) {
		s.tokens = tokens
	}
}

func WithRelay(relay RelayChannel) Option {
	return func(s *Scheduler) {
		s.relay = relay
	}
}

func WithStore(store StoreChannel) Option {
	return func(s *Scheduler) {
		s.store = store
	}
}

func WithDevice(device DeviceProxy) Option {
	return func(s *Scheduler) {
		s.device = device
	}
}

// WithCommandChannels sets the command sources in polling priority order.
func WithCommandChannels(channels ...CommandChannel) Option {
	return func(s *Scheduler) {
		s.channels = channels
	}
}

func WithJournal(journal ResultJournal) Option {
	return func(s *Scheduler) {
		s.journal = journal
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt.Store(s.clock().Unix())
	return s
}

// Start seeds the timers so that no action fires on the very first tick.
// Each timer then runs on its own cadence relative to the start instant.
func (s *Scheduler) Start(now time.Time) {
	unix := now.Unix()
	s.startedAt.Store(unix)
	s.lastHeartbeat = unix
	s.lastTelemetry = unix
	s.lastCommandPoll = unix
}

// Run drives the loop until the context is cancelled or the server revokes
// the agent's credential. Revocation is returned as
// transport.ErrCredentialRevoked so the caller can report it; the agent
// must not restart the loop without re-provisioning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(s.clock())
	s.logger.Info().
		Str("printer_id", s.conf.PrinterID).
		Str("mode", s.conf.Mode()).
		Msg("agent loop starting")

	ticker := time.NewTicker(global.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("interrupt received, shutting down")
			return nil
		case <-ticker.C:
			s.Tick(s.clock())
			if s.stopped.Load() {
				s.logger.Error().Msg("credential revoked, agent requires re-provisioning")
				return transport.ErrCredentialRevoked
			}
		}
	}
}

// Tick runs the timer checks for one loop iteration. Exported so tests can
// drive the loop with a synthetic clock.
func (s *Scheduler) Tick(now time.Time) {
	if s.stopped.Load() {
		return
	}
	if s.tokens.Revoked() {
		s.stopped.Store(true)
		return
	}
	unix := now.Unix()
	if unix-s.lastHeartbeat >= s.conf.HeartbeatInterval {
		s.lastHeartbeat = unix
		s.heartbeat(s.uptime(now))
	}
	// A revocation in one action disables the rest of the tick.
	if s.stopped.Load() {
		return
	}
	if unix-s.lastTelemetry >= s.conf.TelemetryInterval {
		s.lastTelemetry = unix
		s.telemetry()
	}
	if s.stopped.Load() {
		return
	}
	if unix-s.lastCommandPoll >= s.conf.CommandPollInterval {
		s.lastCommandPoll = unix
		s.pollCommands()
	}
	if s.stopped.Load() {
		return
	}
	if s.relay != nil && s.conf.UserID != "" && s.tokens.NearExpiry(unix) {
		s.refreshCredential()
	}
}

// Snapshot reports loop state for the health endpoint.
type Snapshot struct {
	PrinterID     string `json:"printerId"`
	Mode          string `json:"mode"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	TokenState    string `json:"tokenState"`
}

func (s *Scheduler) Snapshot() Snapshot {
	now := s.clock()
	return Snapshot{
		PrinterID:     s.conf.PrinterID,
		Mode:          s.conf.Mode(),
		UptimeSeconds: s.uptime(now),
		TokenState:    s.tokens.State(now.Unix()).String(),
	}
}

func (s *Scheduler) uptime(now time.Time) int64 {
	return now.Unix() - s.startedAt.Load()
}

// observe logs an action failure and converts a revocation into loop
// shutdown. Any other error is left for the next cadence to retry.
func (s *Scheduler) observe(action string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, transport.ErrCredentialRevoked) {
		s.logger.Error().Str("action", action).Msg("credential revoked by server")
		s.tokens.Revoke()
		s.stopped.Store(true)
		return
	}
	s.logger.Warn().Err(err).Str("action", action).Msg("action failed, will retry on a later cycle")
}

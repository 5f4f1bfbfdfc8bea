//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package communications implements the relay channel: heartbeat,
// telemetry, command pull/push, and credential refresh against the
// relay's REST surface.
package communications

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/agent/token"
	"github.com/reach3d/reachlink/common/transport"
)

type Communications struct {
	logger  zerolog.Logger
	conf    *global.Config
	tokens  *token.Manager
	client  *transport.Client
	session string
}

func New(options ...func(*Communications) error) (*Communications, error) {
	c := &Communications{
		logger:  zerolog.Nop(),
		session: uuid.NewString(),
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	if c.conf == nil {
		return nil, errors.New("config is required")
	}
	if c.tokens == nil {
		return nil, errors.New("token manager is required")
	}

	if c.client == nil {
		var err error
		c.client, err = transport.New(
			transport.WithLogger(c.logger),
			transport.WithTimeout(global.RelayTimeout),
			transport.WithRevokeOn401(true))
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func WithLogger(logger zerolog.Logger) func(*Communications) error {
	return func(c *Communications) error {
		c.logger = logger.With().Str("component", "relay").Logger()
		return nil
	}
}

func WithConfig(conf *global.Config) func(*Communications) error {
	return func(c *Communications) error {
		if conf == nil {
			return errors.New("config is nil")
		}
		c.conf = conf
		return nil
	}
}

func WithTokenManager(tokens *token.Manager) func(*Communications) error {
	return func(c *Communications) error {
		if tokens == nil {
			return errors.New("token manager is nil")
		}
		c.tokens = tokens
		return nil
	}
}

// WithTransport overrides the HTTP transport. Used by tests.
func WithTransport(client *transport.Client) func(*Communications) error {
	return func(c *Communications) error {
		if client == nil {
			return errors.New("transport is nil")
		}
		c.client = client
		return nil
	}
}

// Session returns the per-process session id stamped into heartbeats.
func (c *Communications) Session() string {
	return c.session
}

func (c *Communications) url(path string) string {
	return c.conf.RelayURL + path
}

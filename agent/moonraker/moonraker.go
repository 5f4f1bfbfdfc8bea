//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package moonraker queries the local device-control API for printer
// state and forwards queued commands to it.
package moonraker

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/common/transport"
)

type Client struct {
	logger    zerolog.Logger
	baseURL   string
	printerIP string
	client    *transport.Client
}

func New(options ...func(*Client) error) (*Client, error) {
	c := &Client{logger: zerolog.Nop()}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	if c.baseURL == "" {
		return nil, errors.New("device URL is required")
	}

	if c.client == nil {
		var err error
		c.client, err = transport.New(
			transport.WithLogger(c.logger),
			transport.WithTimeout(global.DeviceTimeout))
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func WithLogger(logger zerolog.Logger) func(*Client) error {
	return func(c *Client) error {
		c.logger = logger.With().Str("component", "moonraker").Logger()
		return nil
	}
}

// WithURL sets the device-control base URL, normally the local loopback
// Moonraker endpoint.
func WithURL(baseURL string) func(*Client) error {
	return func(c *Client) error {
		if baseURL == "" {
			return errors.New("device URL is empty")
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithPrinterIP sets the printer's LAN address, used for routing commands
// from remote originators. Optional.
func WithPrinterIP(ip string) func(*Client) error {
	return func(c *Client) error {
		c.printerIP = ip
		return nil
	}
}

// WithTransport overrides the HTTP transport. The device API must not get
// a revoke-on-401 transport: its auth failures are device errors, not
// credential revocations.
func WithTransport(client *transport.Client) func(*Client) error {
	return func(c *Client) error {
		if client == nil {
			return errors.New("transport is nil")
		}
		c.client = client
		return nil
	}
}

func (c *Client) queryURL() string {
	return fmt.Sprintf("%s/printer/objects/query?"+
		"extruder=temperature,target&"+
		"heater_bed=temperature,target&"+
		"print_stats=filename,total_duration,print_duration,state&"+
		"system_stats=cputime,cpu_percent,memavail",
		c.baseURL)
}

//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package queuestore implements the command channel backed by the shared
// key-value document store. The store is plain REST: GET/PATCH/PUT/DELETE
// on per-printer subtree paths with a .json suffix and the credential in
// the query string.
package queuestore

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/agent/token"
	"github.com/reach3d/reachlink/common/schema"
	"github.com/reach3d/reachlink/common/transport"
)

type Store struct {
	logger    zerolog.Logger
	baseURL   string
	printerID string
	tokens    *token.Manager
	client    *transport.Client

	// lastStatus is the last successfully written status document, kept
	// only to skip structurally identical writes. Touched exclusively
	// from the scheduler's control loop.
	lastStatus *schema.TelemetrySnapshot
}

func New(options ...func(*Store) error) (*Store, error) {
	s := &Store{logger: zerolog.Nop()}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	if s.baseURL == "" {
		return nil, errors.New("store URL is required")
	}
	if s.printerID == "" {
		return nil, errors.New("printer id is required")
	}
	if s.tokens == nil {
		return nil, errors.New("token manager is required")
	}

	if s.client == nil {
		var err error
		s.client, err = transport.New(
			transport.WithLogger(s.logger),
			transport.WithTimeout(global.StoreTimeout),
			transport.WithRevokeOn401(true))
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func WithLogger(logger zerolog.Logger) func(*Store) error {
	return func(s *Store) error {
		s.logger = logger.With().Str("component", "queuestore").Logger()
		return nil
	}
}

func WithURL(baseURL string) func(*Store) error {
	return func(s *Store) error {
		if baseURL == "" {
			return errors.New("store URL is empty")
		}
		s.baseURL = baseURL
		return nil
	}
}

func WithPrinterID(printerID string) func(*Store) error {
	return func(s *Store) error {
		if printerID == "" {
			return errors.New("printer id is empty")
		}
		s.printerID = printerID
		return nil
	}
}

func WithTokenManager(tokens *token.Manager) func(*Store) error {
	return func(s *Store) error {
		if tokens == nil {
			return errors.New("token manager is nil")
		}
		s.tokens = tokens
		return nil
	}
}

// WithTransport overrides the HTTP transport. Used by tests.
func WithTransport(client *transport.Client) func(*Store) error {
	return func(s *Store) error {
		if client == nil {
			return errors.New("transport is nil")
		}
		s.client = client
		return nil
	}
}

// pathURL builds the URL for a subtree path, reading the credential at
// call time so a refreshed token is picked up immediately.
func (s *Store) pathURL(parts ...string) string {
	u := fmt.Sprintf("%s/printers/%s", s.baseURL, s.printerID)
	for _, p := range parts {
		u += "/" + p
	}
	return fmt.Sprintf("%s.json?auth=%s", u, url.QueryEscape(s.tokens.Current()))
}

//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package token owns the agent's short-lived store credential: expiry
// tracking, refresh scheduling, and revocation. Every channel reads the
// latest credential at call time; there is no dual-token window.
package token

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State of the credential lifecycle.
type State int

const (
	StateValid State = iota
	StateNearExpiry
	StateRefreshing
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateNearExpiry:
		return "near-expiry"
	case StateRefreshing:
		return "refreshing"
	case StateRevoked:
		return "revoked"
	}
	return "unknown"
}

// DefaultTTL is assumed when a credential carries no usable expiry claim.
const DefaultTTL = 3600 * time.Second

// Manager tracks one credential. It is safe for concurrent use: the
// scheduler is the only writer, but the health endpoint reads from its
// own goroutine.
type Manager struct {
	mu         sync.Mutex
	current    string
	expiresAt  int64 // unix seconds; 0 means no managed credential
	margin     int64
	refreshing bool
	revoked    bool
}

// NewManager seeds the manager with the credential from configuration.
// If the credential is a JWT with an exp claim, expiry comes from there;
// otherwise the issuer's default TTL is assumed. An empty credential
// leaves expiry at zero so refresh never triggers.
func NewManager(initial string, margin int64) *Manager {
	m := &Manager{current: initial, margin: margin}
	if initial != "" {
		m.expiresAt = seedExpiry(initial)
	}
	return m
}

func seedExpiry(credential string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Unix()
		}
	}
	return time.Now().Add(DefaultTTL).Unix()
}

// Current returns the latest credential.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// ExpiresAt returns the tracked expiry in unix seconds, 0 if unknown.
func (m *Manager) ExpiresAt() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// NearExpiry reports whether the refresh margin has been crossed.
func (m *Manager) NearExpiry(now int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.revoked && m.expiresAt > 0 && now > m.expiresAt-m.margin
}

// Update replaces the credential after a successful refresh. expiresAt is
// unix seconds; a zero value falls back to the default TTL.
func (m *Manager) Update(credential string, expiresAt int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = credential
	if expiresAt > 0 {
		m.expiresAt = expiresAt
	} else {
		m.expiresAt = time.Now().Add(DefaultTTL).Unix()
	}
}

// BeginRefresh and EndRefresh bracket the refresh call so the state is
// observable while it runs.
func (m *Manager) BeginRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = true
}

func (m *Manager) EndRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = false
}

// Revoke marks the credential revoked. This is terminal: recovery
// requires re-provisioning the agent outside this process's lifetime.
func (m *Manager) Revoke() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = true
}

// Revoked reports whether the credential has been revoked.
func (m *Manager) Revoked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked
}

// State reports the lifecycle state at the given time.
func (m *Manager) State(now int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.revoked:
		return StateRevoked
	case m.refreshing:
		return StateRefreshing
	case m.expiresAt > 0 && now > m.expiresAt-m.margin:
		return StateNearExpiry
	}
	return StateValid
}

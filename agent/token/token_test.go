//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "printer-001",
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSeedExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	m := NewManager(signedToken(t, exp), 600)
	assert.Equal(t, exp.Unix(), m.ExpiresAt())
}

func TestSeedExpiryFallbackForOpaqueToken(t *testing.T) {
	before := time.Now().Add(DefaultTTL).Unix()
	m := NewManager("not-a-jwt", 600)
	after := time.Now().Add(DefaultTTL).Unix()
	assert.GreaterOrEqual(t, m.ExpiresAt(), before)
	assert.LessOrEqual(t, m.ExpiresAt(), after)
}

func TestEmptyCredentialNeverNearExpiry(t *testing.T) {
	m := NewManager("", 600)
	assert.Equal(t, int64(0), m.ExpiresAt())
	assert.False(t, m.NearExpiry(time.Now().Unix()+1e9))
}

func TestNearExpiryCrossing(t *testing.T) {
	m := NewManager("opaque", 600)
	m.Update("opaque", 10_000)

	assert.False(t, m.NearExpiry(9_399), "one second before the margin")
	assert.True(t, m.NearExpiry(9_401), "one second past the margin")
	assert.True(t, m.NearExpiry(11_000), "past expiry is still near-expiry")
}

func TestUpdateClearsNearExpiry(t *testing.T) {
	m := NewManager("old", 600)
	m.Update("old", 10_000)
	require.True(t, m.NearExpiry(9_500))

	m.Update("new", 20_000)
	assert.Equal(t, "new", m.Current())
	assert.False(t, m.NearExpiry(9_500))
	assert.True(t, m.NearExpiry(19_500))
}

func TestRevokedIsTerminal(t *testing.T) {
	m := NewManager("tok", 600)
	m.Update("tok", 10_000)
	m.Revoke()

	assert.True(t, m.Revoked())
	assert.Equal(t, StateRevoked, m.State(9_500))
	assert.False(t, m.NearExpiry(9_500), "revoked credential is not refreshed")

	// An Update cannot resurrect a revoked credential.
	m.Update("fresh", 99_999)
	assert.Equal(t, StateRevoked, m.State(9_500))
}

func TestStateTransitions(t *testing.T) {
	m := NewManager("tok", 600)
	m.Update("tok", 10_000)

	assert.Equal(t, StateValid, m.State(9_000))
	assert.Equal(t, StateNearExpiry, m.State(9_500))

	m.BeginRefresh()
	assert.Equal(t, StateRefreshing, m.State(9_500))
	m.EndRefresh()
	assert.Equal(t, StateNearExpiry, m.State(9_500))
}

//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package schema

// RefreshRequest trades a near-expiry store credential for a fresh one.
// The relay validates the caller through the bearer token on the request,
// so the expired credential itself does not need to still be valid.
type RefreshRequest struct {
	PrinterID    string `json:"printerId"`
	UserID       string `json:"userId"`
	ExpiredToken string `json:"expiredToken"`
}

// RefreshResponse carries the replacement credential. ExpiresAt is in
// milliseconds since the epoch; ExpiresIn is seconds and informational.
type RefreshResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	ExpiresIn int64  `json:"expiresIn"`
}

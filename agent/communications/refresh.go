//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package communications

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/reach3d/reachlink/common/schema"
)

// ErrRefreshUnavailable means this agent cannot refresh: either no user
// id is configured or the relay channel is absent.
var ErrRefreshUnavailable = errors.New("credential refresh not available")

// RefreshToken trades the current (possibly near-expiry) store credential
// for a fresh one and installs it in the token manager, where every
// channel picks it up on its next call.
func (c *Communications) RefreshToken() error {
	if c.conf.UserID == "" || c.tokens.Current() == "" {
		return ErrRefreshUnavailable
	}

	req := schema.RefreshRequest{
		PrinterID:    c.conf.PrinterID,
		UserID:       c.conf.UserID,
		ExpiredToken: c.tokens.Current(),
	}

	c.tokens.BeginRefresh()
	defer c.tokens.EndRefresh()

	data, err := c.client.Do(http.MethodPost, c.url(schema.EndpointAuthRefresh), req, c.conf.Token)
	if err != nil {
		return fmt.Errorf("token refresh: %w", err)
	}
	if data == nil {
		return errors.New("token refresh: empty response")
	}

	var resp schema.RefreshResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("token refresh: %w", err)
	}
	if resp.Token == "" {
		return errors.New("token refresh: no token in response")
	}

	// expiresAt arrives in milliseconds.
	c.tokens.Update(resp.Token, resp.ExpiresAt/1000)
	c.logger.Info().Int64("expires_in", resp.ExpiresIn).Msg("store credential refreshed")
	return nil
}

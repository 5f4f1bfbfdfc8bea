//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package moonraker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/common/schema"
)

// Execute forwards a queued command to the device API. The dot-separated
// verb becomes the endpoint path ("printer.gcode.script" posts to
// /printer/gcode/script). Failures are returned as result data with
// errorCode set, never as an error: a failed device command must still
// produce a CommandResult.
func (c *Client) Execute(command string, params map[string]any, originatorIP string) (result any, errorCode string) {
	base := c.targetBase(originatorIP)
	url := base + "/" + strings.ReplaceAll(command, ".", "/")

	if params == nil {
		params = map[string]any{}
	}

	data, err := c.client.Do(http.MethodPost, url, params, "")
	if err != nil {
		c.logger.Error().Err(err).Str("command", command).Msg("device command failed")
		return map[string]any{"error": err.Error()}, schema.ErrorCodeDevice
	}
	if data == nil {
		return map[string]any{}, ""
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.logger.Error().Err(err).Str("command", command).Msg("device response is not valid JSON")
		return map[string]any{"error": "unparseable device response"}, schema.ErrorCodeDevice
	}
	return parsed, ""
}

// targetBase picks the device endpoint for one command. An originator
// outside the printer's /24 network is reached back through the printer's
// LAN address; everything else uses the local loopback endpoint. The
// loopback choice for same-subnet originators is correct only because the
// agent always runs on the printer itself; a deployment that separates
// the two would need real routing here.
func (c *Client) targetBase(originatorIP string) string {
	if originatorIP == "" || c.printerIP == "" {
		return c.baseURL
	}
	if !sameSubnet24(originatorIP, c.printerIP) {
		c.logger.Debug().
			Str("originator", originatorIP).
			Str("printer_ip", c.printerIP).
			Msg("remote originator, routing via printer LAN address")
		return fmt.Sprintf("http://%s:%d", c.printerIP, global.MoonrakerPort)
	}
	return c.baseURL
}

// sameSubnet24 reports whether two IPv4 addresses share a /24 network.
// Malformed or non-IPv4 addresses are treated as not sharing one.
func sameSubnet24(a, b string) bool {
	ipA, errA := netip.ParseAddr(a)
	ipB, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil || !ipA.Is4() || !ipB.Is4() {
		return false
	}
	prefixA, err := ipA.Prefix(24)
	if err != nil {
		return false
	}
	return prefixA.Contains(ipB)
}

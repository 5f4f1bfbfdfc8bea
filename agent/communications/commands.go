//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package communications

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reach3d/reachlink/common/schema"
)

// PullCommand asks the relay for the next queued command. Nil means the
// queue is empty, which is the common case and not an error.
func (c *Communications) PullCommand() (*schema.QueuedCommand, error) {
	req := schema.CommandPullRequest{PrinterID: c.conf.PrinterID}

	data, err := c.client.Do(http.MethodPost, c.url(schema.EndpointCommandPull), req, c.conf.Token)
	if err != nil {
		return nil, fmt.Errorf("pull command: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var resp schema.CommandPullResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal pull response: %w", err)
	}
	return resp.Request, nil
}

// PushCommandResult reports a result to the relay. This is attempted for
// failed device commands too, with status "failed" and the error code set.
func (c *Communications) PushCommandResult(result schema.CommandResult) error {
	if result.Timestamp == 0 {
		result.Timestamp = time.Now().UnixMilli()
	}
	req := schema.CommandPushRequest{
		PrinterID: c.conf.PrinterID,
		Result:    result,
	}

	if _, err := c.client.Do(http.MethodPost, c.url(schema.EndpointCommandPush), req, c.conf.Token); err != nil {
		return fmt.Errorf("push result %s: %w", result.RequestID, err)
	}
	return nil
}

// Name implements the scheduler's CommandChannel.
func (c *Communications) Name() string {
	return "relay"
}

// Pull implements the scheduler's CommandChannel.
func (c *Communications) Pull() (*schema.QueuedCommand, error) {
	return c.PullCommand()
}

// PushResult implements the scheduler's CommandChannel.
func (c *Communications) PushResult(result schema.CommandResult) error {
	return c.PushCommandResult(result)
}

// Ack implements the scheduler's CommandChannel. The relay dequeues a
// command when its result is pushed, so there is nothing left to do.
func (c *Communications) Ack(string) error {
	return nil
}

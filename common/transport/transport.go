//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

// Package transport provides the single retrying JSON request primitive
// shared by every network channel in the agent. Outcomes are reported as
// error values: nil for success (a nil payload means the server replied
// with an empty body), ErrCredentialRevoked when the server rejected the
// credential, and *Error for transport failures that exhausted retries.
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrCredentialRevoked is returned when a call answered 401 on a client
// configured with WithRevokeOn401. It is never retried.
var ErrCredentialRevoked = errors.New("credential revoked by server")

// Error is a transport failure that survived the retry loop.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	logger     zerolog.Logger
	httpClient *http.Client
	maxRetries int
	revokeOn401 bool
	sleep      func(time.Duration)
}

func New(options ...func(*Client) error) (*Client, error) {
	c := &Client{
		logger:     zerolog.Nop(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		sleep:      time.Sleep,
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func WithLogger(logger zerolog.Logger) func(*Client) error {
	return func(c *Client) error {
		c.logger = logger.With().Str("component", "transport").Logger()
		return nil
	}
}

// WithTimeout bounds each individual attempt, not the whole retry loop.
func WithTimeout(timeout time.Duration) func(*Client) error {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		c.httpClient = &http.Client{Timeout: timeout}
		return nil
	}
}

// Timeout reports the per-attempt timeout in effect.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

func WithRetries(attempts int) func(*Client) error {
	return func(c *Client) error {
		if attempts < 1 {
			return errors.New("at least one attempt is required")
		}
		c.maxRetries = attempts
		return nil
	}
}

// WithRevokeOn401 makes a 401 response surface as ErrCredentialRevoked
// instead of a retryable failure. Set this only on clients that talk to
// credential-checking services; the local device API answers 401 for
// entirely unrelated reasons.
func WithRevokeOn401(revoke bool) func(*Client) error {
	return func(c *Client) error {
		c.revokeOn401 = revoke
		return nil
	}
}

// WithSleep replaces the inter-attempt sleep. Used by tests.
func WithSleep(sleep func(time.Duration)) func(*Client) error {
	return func(c *Client) error {
		if sleep == nil {
			return errors.New("sleep function is nil")
		}
		c.sleep = sleep
		return nil
	}
}

// Do performs an HTTP request with a JSON body and returns the raw JSON
// response. A nil body sends no payload; an empty authToken sends no
// Authorization header. Retries use exponential backoff (1s, 2s, 4s, ...)
// between attempts.
func (c *Client) Do(method, url string, body any, authToken string) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("wait", wait).
				Str("url", url).
				Msg("request failed, retrying")
			c.sleep(wait)
		}

		data, err := c.once(method, url, payload, authToken)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, ErrCredentialRevoked) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &Error{Attempts: c.maxRetries, Err: lastErr}
}

func (c *Client) once(method, url string, payload []byte, authToken string) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", authToken))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized && c.revokeOn401 {
		return nil, ErrCredentialRevoked
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s failed with status %d", method, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		// Succeeded with no payload, distinct from failure.
		return nil, nil
	}
	return data, nil
}

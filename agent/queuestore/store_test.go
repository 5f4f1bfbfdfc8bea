//
// Copyright (c) 2025-2026 Reach3D Labs Inc.
// Please see the LICENSE file for details
//

package queuestore

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reach3d/reachlink/agent/global"
	"github.com/reach3d/reachlink/agent/token"
	"github.com/reach3d/reachlink/common/schema"
	"github.com/reach3d/reachlink/common/transport"
)

func TestDefaultTransportUsesStoreTimeout(t *testing.T) {
	s, err := New(
		WithURL(global.DefaultStoreURL),
		WithPrinterID("printer-001"),
		WithTokenManager(token.NewManager("store-cred", 600)))
	require.NoError(t, err)
	assert.Equal(t, global.StoreTimeout, s.client.Timeout())
}

// fakeStore records requests and plays back canned responses per path.
type fakeStore struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string // method+path -> body
	status    map[string]int    // method+path -> status override
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (f *fakeStore) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
		})
		key := r.Method + " " + r.URL.Path
		resp, ok := f.responses[key]
		code := f.status[key]
		f.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
			return
		}
		if ok {
			_, _ = w.Write([]byte(resp))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeStore) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func newStore(t *testing.T, url string) (*Store, *token.Manager) {
	t.Helper()
	tokens := token.NewManager("store-cred", 600)
	tr, err := transport.New(transport.WithRetries(1), transport.WithRevokeOn401(true))
	require.NoError(t, err)
	s, err := New(
		WithURL(url),
		WithPrinterID("printer-001"),
		WithTokenManager(tokens),
		WithTransport(tr))
	require.NoError(t, err)
	return s, tokens
}

func TestReadCommandsEmptySubtree(t *testing.T) {
	fake := &fakeStore{responses: map[string]string{
		"GET /printers/printer-001/queue.json": "null",
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	commands, err := s.ReadCommands()
	require.NoError(t, err)
	assert.Empty(t, commands)
}

func TestReadCommandsSetsRequestIDFromKey(t *testing.T) {
	fake := &fakeStore{responses: map[string]string{
		"GET /printers/printer-001/queue.json": `{
			"req-b": {"command":"printer.info","params":{}},
			"req-a": {"command":"printer.gcode.script","params":{"script":"G28"},"userIp":"10.0.1.9"}
		}`,
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	commands, err := s.ReadCommands()
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "req-a", commands["req-a"].RequestID)
	assert.Equal(t, "10.0.1.9", commands["req-a"].OriginatorIP)
}

func TestPullReturnsLowestRequestID(t *testing.T) {
	fake := &fakeStore{responses: map[string]string{
		"GET /printers/printer-001/queue.json": `{
			"req-b": {"command":"printer.info"},
			"req-a": {"command":"printer.gcode.script"}
		}`,
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	cmd, err := s.Pull()
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, "req-a", cmd.RequestID)
}

func TestReadCommandsDiscardsUndecodableEntry(t *testing.T) {
	fake := &fakeStore{responses: map[string]string{
		"GET /printers/printer-001/queue.json": `{
			"req-bad": "garbage",
			"req-good": {"command":"printer.info","params":{}}
		}`,
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	commands, err := s.ReadCommands()
	require.NoError(t, err)

	// The well-formed command is not blocked behind the bad entry, and
	// the bad entry is deleted so it never comes back.
	require.Len(t, commands, 1)
	assert.Equal(t, "req-good", commands["req-good"].RequestID)

	var deletes []string
	for _, req := range fake.recorded() {
		if req.Method == http.MethodDelete {
			deletes = append(deletes, req.Path)
		}
	}
	assert.Equal(t, []string{"/printers/printer-001/queue/req-bad.json"}, deletes)

	cmd, err := s.Pull()
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, "req-good", cmd.RequestID)
}

func TestPullEmptyQueue(t *testing.T) {
	fake := &fakeStore{responses: map[string]string{
		"GET /printers/printer-001/queue.json": "null",
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	cmd, err := s.Pull()
	require.NoError(t, err)
	assert.Nil(t, cmd)
}

func TestAuthTokenInQueryString(t *testing.T) {
	fake := &fakeStore{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, tokens := newStore(t, ts.URL)
	require.NoError(t, s.UpdateHeartbeat(42, "online"))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "auth=store-cred", reqs[0].Query)

	// A refreshed credential must be used on the very next call.
	tokens.Update("fresh-cred", 0)
	require.NoError(t, s.UpdateHeartbeat(43, "online"))
	reqs = fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "auth=fresh-cred", reqs[1].Query)
}

func TestWriteResultThenDeletePaths(t *testing.T) {
	fake := &fakeStore{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	res := schema.CommandResult{
		RequestID: "req-1",
		Status:    schema.ResultStatusCompleted,
		Result:    map[string]any{"ok": true},
	}
	require.NoError(t, s.WriteResult(res))
	require.NoError(t, s.DeleteCommand("req-1"))

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/printers/printer-001/commandResults/req-1.json", reqs[0].Path)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)
	assert.Equal(t, "/printers/printer-001/queue/req-1.json", reqs[1].Path)

	var written schema.CommandResult
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &written))
	assert.Equal(t, schema.ResultStatusCompleted, written.Status)
	assert.NotZero(t, written.Timestamp)
}

func TestWriteStatusDeduplicates(t *testing.T) {
	fake := &fakeStore{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	nozzle := 210.0
	snap := &schema.TelemetrySnapshot{
		Temperatures: schema.Temperatures{Nozzle: &nozzle},
		Job:          schema.JobInfo{State: schema.JobStatePrinting, Progress: 10},
	}

	require.NoError(t, s.WriteStatus(snap))
	// Structurally identical snapshot in fresh memory: skipped.
	nozzle2 := 210.0
	same := &schema.TelemetrySnapshot{
		Temperatures: schema.Temperatures{Nozzle: &nozzle2},
		Job:          schema.JobInfo{State: schema.JobStatePrinting, Progress: 10},
	}
	require.NoError(t, s.WriteStatus(same))
	assert.Len(t, fake.recorded(), 1, "identical status must not be rewritten")

	// A changed snapshot goes through.
	changed := *same
	changed.Job.Progress = 11
	require.NoError(t, s.WriteStatus(&changed))
	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPatch, reqs[1].Method)
	assert.Equal(t, "/printers/printer-001/status.json", reqs[1].Path)
}

func TestWriteStatusFailureDoesNotUpdateDedupe(t *testing.T) {
	fake := &fakeStore{status: map[string]int{
		"PATCH /printers/printer-001/status.json": http.StatusInternalServerError,
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	snap := &schema.TelemetrySnapshot{Job: schema.JobInfo{State: schema.JobStateIdle}}
	require.Error(t, s.WriteStatus(snap))

	// After the store recovers the same snapshot must be retried, not
	// treated as already written.
	fake.mu.Lock()
	fake.status = map[string]int{}
	fake.mu.Unlock()
	require.NoError(t, s.WriteStatus(snap))
	assert.Equal(t, 2, len(fake.recorded()))
}

func TestRevokedCredentialSurfaces(t *testing.T) {
	fake := &fakeStore{status: map[string]int{
		"GET /printers/printer-001/queue.json": http.StatusUnauthorized,
	}}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s, _ := newStore(t, ts.URL)
	_, err := s.ReadCommands()
	require.ErrorIs(t, err, transport.ErrCredentialRevoked)
}

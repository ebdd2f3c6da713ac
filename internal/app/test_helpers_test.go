package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"devdeck/internal/daemon"
)

type fakeTransport func(*http.Request) (*http.Response, error)

func (f fakeTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func stubDaemon(t *testing.T, running bool, dial func(context.Context) (*daemon.Client, error)) {
	t.Helper()
	resetDaemonDeps()
	daemonIsRunning = func() bool { return running }
	if dial == nil {
		dial = func(context.Context) (*daemon.Client, error) {
			return nil, errors.New("dial not stubbed")
		}
	}
	dialDaemonClient = dial
	t.Cleanup(resetDaemonDeps)
}

func clientWith(rt fakeTransport) func(context.Context) (*daemon.Client, error) {
	return func(context.Context) (*daemon.Client, error) {
		return daemon.NewClient(rt), nil
	}
}

func jsonResponse(t *testing.T, status int, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}

func emptyResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func errorEnvelope(t *testing.T, status int, code, message string) *http.Response {
	t.Helper()
	return jsonResponse(t, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func decodeAppRequest(t *testing.T, r *http.Request) string {
	t.Helper()
	var req struct {
		App string `json:"app"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return req.App
}

package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"devdeck/internal/registry"
	"devdeck/internal/supervisor"
)

func TestAppRunTestSuccess(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/test/run" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if app := decodeAppRequest(t, r); app != "api" {
			t.Fatalf("expected app api in request, got %q", app)
		}
		return jsonResponse(t, http.StatusOK, supervisor.TestRunStatus{
			App:    "api",
			PID:    777,
			Status: registry.StatusRunning,
			RunID:  "run-1",
		}), nil
	}))

	app := New(Options{})
	status, err := app.RunTest(context.Background(), TestParams{App: "api", Timeout: time.Second})
	if err != nil {
		t.Fatalf("RunTest returned error: %v", err)
	}
	if status.RunID != "run-1" || status.Status != registry.StatusRunning {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestAppRunTestSpawnFailed(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		return errorEnvelope(t, http.StatusBadGateway, "spawn_failed", "spawn failed: api: fork/exec"), nil
	}))

	app := New(Options{})
	_, err := app.RunTest(context.Background(), TestParams{App: "api", Timeout: time.Second})
	if !errors.Is(err, supervisor.ErrSpawnFailed) {
		t.Fatalf("expected spawn failed error, got %v", err)
	}
}

func TestAppStopTestSuccess(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/test/stop" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		return emptyResponse(http.StatusNoContent), nil
	}))

	app := New(Options{})
	if err := app.StopTest(context.Background(), TestParams{App: "api", Timeout: time.Second}); err != nil {
		t.Fatalf("StopTest returned error: %v", err)
	}
}

func TestAppRunTestEmptyName(t *testing.T) {
	stubDaemon(t, true, nil)

	app := New(Options{})
	if _, err := app.RunTest(context.Background(), TestParams{Timeout: time.Second}); err == nil || err.Error() != "app name is required" {
		t.Fatalf("expected app name error, got %v", err)
	}
}

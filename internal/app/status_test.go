package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"devdeck/internal/daemon"
	"devdeck/internal/registry"
	"devdeck/internal/supervisor"
)

func TestAppSnapshot(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Path {
		case "/v1/status":
			return jsonResponse(t, http.StatusOK, daemon.DaemonStatus{
				PID:           999,
				Apps:          3,
				DevServers:    1,
				PortMin:       7000,
				PortMax:       7099,
				PortsInUse:    1,
				InspectorOpen: true,
			}), nil
		case "/v1/dev":
			return jsonResponse(t, http.StatusOK, map[string]any{
				"servers": []supervisor.DevServerStatus{
					{App: "web", Port: 7000, PID: 41, Color: "cyan", Status: registry.StatusRunning},
				},
			}), nil
		case "/v1/test":
			exitCode := 2
			return jsonResponse(t, http.StatusOK, map[string]any{
				"runs": []supervisor.TestRunStatus{
					{App: "api", PID: 42, Status: registry.StatusCrashed, ExitCode: &exitCode, RunID: "run-9"},
				},
			}), nil
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			return nil, nil
		}
	}))

	app := New(Options{})
	snap, err := app.Snapshot(context.Background(), StatusParams{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Daemon.PID != 999 || snap.Daemon.Apps != 3 {
		t.Fatalf("unexpected daemon info %+v", snap.Daemon)
	}
	if len(snap.DevServers) != 1 || snap.DevServers[0].App != "web" {
		t.Fatalf("unexpected dev servers %+v", snap.DevServers)
	}
	if len(snap.TestRuns) != 1 || snap.TestRuns[0].ExitCode == nil || *snap.TestRuns[0].ExitCode != 2 {
		t.Fatalf("unexpected test runs %+v", snap.TestRuns)
	}
	if !snap.Inspector {
		t.Fatal("expected inspector open in snapshot")
	}
}

func TestAppAppsListsCatalog(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/apps" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"apps": []daemon.AppInfo{
				{Name: "web", DisplayName: "Web Store", Path: "/workshop/web"},
				{Name: "api", DisplayName: "API", Path: "/workshop/api"},
			},
		}), nil
	}))

	app := New(Options{})
	apps, err := app.Apps(context.Background(), AppsParams{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Apps returned error: %v", err)
	}
	if len(apps) != 2 || apps[0].Name != "web" || apps[1].Name != "api" {
		t.Fatalf("unexpected apps %+v", apps)
	}
}

func TestAppLogsDevAndTest(t *testing.T) {
	stubDaemon(t, true, clientWith(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Path {
		case "/v1/dev/output":
			if r.URL.Query().Get("app") != "web" {
				t.Fatalf("expected app query param, got %q", r.URL.RawQuery)
			}
			return jsonResponse(t, http.StatusOK, map[string]any{"lines": []string{"listening on 7000"}}), nil
		case "/v1/test/output":
			return jsonResponse(t, http.StatusOK, map[string]any{"lines": []string{"1 passed"}}), nil
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			return nil, nil
		}
	}))

	app := New(Options{})
	lines, err := app.Logs(context.Background(), LogsParams{App: "web", Timeout: time.Second})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "listening on 7000" {
		t.Fatalf("unexpected dev output %v", lines)
	}

	lines, err = app.Logs(context.Background(), LogsParams{App: "web", Test: true, Timeout: time.Second})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "1 passed" {
		t.Fatalf("unexpected test output %v", lines)
	}
}

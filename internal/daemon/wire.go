package daemon

import (
	"time"

	"devdeck/internal/supervisor"
)

// Error codes carried in error envelopes. The client maps them back to
// the package sentinels so errors.Is works across the socket.
const (
	codeUnknownApp        = "unknown_app"
	codeResourceExhausted = "resource_exhausted"
	codeSpawnFailed       = "spawn_failed"
	codeInvalidArgument   = "invalid_argument"
	codeInternal          = "internal"
)

// AppInfo is a catalog entry as reported to clients.
type AppInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
}

// DaemonStatus reports daemon-level counters for status displays.
type DaemonStatus struct {
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	Apps          int       `json:"apps"`
	DevServers    int       `json:"dev_servers"`
	TestRuns      int       `json:"test_runs"`
	PortMin       int       `json:"port_min"`
	PortMax       int       `json:"port_max"`
	PortsInUse    int       `json:"ports_in_use"`
	InspectorOpen bool      `json:"inspector_open"`
}

type pingResponse struct {
	Ok string `json:"ok"`
}

type appRequest struct {
	App string `json:"app"`
}

type devListResponse struct {
	Servers []supervisor.DevServerStatus `json:"servers"`
}

type testListResponse struct {
	Runs []supervisor.TestRunStatus `json:"runs"`
}

type appsResponse struct {
	Apps []AppInfo `json:"apps"`
}

type outputResponse struct {
	Lines []string `json:"lines"`
}

type inspectorResponse struct {
	Open bool `json:"open"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

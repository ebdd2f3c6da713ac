package supervisor

import "devdeck/internal/registry"

// DevServerStatus is the query projection for one dev server.
type DevServerStatus struct {
	App    string          `json:"app"`
	Port   int             `json:"port"`
	PID    int             `json:"pid"`
	Color  string          `json:"color"`
	Status registry.Status `json:"status"`
}

// TestRunStatus is the query projection for one test run.
type TestRunStatus struct {
	App      string          `json:"app"`
	PID      int             `json:"pid"`
	Status   registry.Status `json:"status"`
	ExitCode *int            `json:"exit_code,omitempty"`
	RunID    string          `json:"run_id"`
}

// ListDevServers returns one entry per tracked dev server in spawn order.
// It reads a registry snapshot only and never blocks on lifecycle work; an
// app mid-spawn shows up as starting.
func (s *Supervisor) ListDevServers() []DevServerStatus {
	all := s.dev.All()
	out := make([]DevServerStatus, 0, len(all))
	for _, h := range all {
		out = append(out, DevServerStatus{
			App:    h.App,
			Port:   h.Port,
			PID:    h.PID,
			Color:  h.Color,
			Status: h.Status,
		})
	}
	return out
}

// ListTestRuns returns one entry per tracked test run in spawn order,
// including finished runs with their recorded exit codes.
func (s *Supervisor) ListTestRuns() []TestRunStatus {
	all := s.tests.All()
	out := make([]TestRunStatus, 0, len(all))
	for _, h := range all {
		out = append(out, TestRunStatus{
			App:      h.App,
			PID:      h.PID,
			Status:   h.Status,
			ExitCode: h.ExitCode,
			RunID:    h.RunID,
		})
	}
	return out
}

package app

import (
	"context"
	"fmt"
	"time"

	"devdeck/internal/daemon"
	"devdeck/internal/supervisor"
)

// StatusParams bounds the status queries.
type StatusParams struct {
	Timeout time.Duration
}

// Snapshot aggregates the daemon's view of the workshop at one moment.
type Snapshot struct {
	Daemon     daemon.DaemonStatus
	DevServers []supervisor.DevServerStatus
	TestRuns   []supervisor.TestRunStatus
	Inspector  bool
}

// Snapshot queries the daemon for its counters plus all tracked dev servers
// and test runs. The queries read registry snapshots only, so a snapshot
// never waits on spawns or stops in flight.
func (a *App) Snapshot(ctx context.Context, params StatusParams) (Snapshot, error) {
	var snap Snapshot
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		info, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("daemon status failed: %w", err)
		}
		devs, err := client.ListDevServers(ctx)
		if err != nil {
			return fmt.Errorf("daemon dev list failed: %w", err)
		}
		runs, err := client.ListTestRuns(ctx)
		if err != nil {
			return fmt.Errorf("daemon test list failed: %w", err)
		}
		snap = Snapshot{
			Daemon:     info,
			DevServers: devs,
			TestRuns:   runs,
			Inspector:  info.InspectorOpen,
		}
		return nil
	})
	return snap, err
}

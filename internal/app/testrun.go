package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devdeck/internal/daemon"
	"devdeck/internal/supervisor"
)

// TestParams configures a test run request.
type TestParams struct {
	App     string
	Timeout time.Duration
}

// RunTest asks the daemon to start the app's test command. If a run is
// already in flight the existing handle comes back.
func (a *App) RunTest(ctx context.Context, params TestParams) (supervisor.TestRunStatus, error) {
	var status supervisor.TestRunStatus
	app := strings.TrimSpace(params.App)
	if app == "" {
		return status, errors.New("app name is required")
	}

	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		st, err := client.RunTest(ctx, app)
		if err != nil {
			return fmt.Errorf("daemon test run failed: %w", err)
		}
		status = st
		return nil
	})
	return status, err
}

// StopTest asks the daemon to interrupt the app's running tests. The run's
// handle stays queryable afterwards.
func (a *App) StopTest(ctx context.Context, params TestParams) error {
	app := strings.TrimSpace(params.App)
	if app == "" {
		return errors.New("app name is required")
	}

	return a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		if err := client.StopTest(ctx, app); err != nil {
			return fmt.Errorf("daemon test stop failed: %w", err)
		}
		return nil
	})
}

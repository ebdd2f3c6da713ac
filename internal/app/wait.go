package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devdeck/internal/daemon"
	"devdeck/internal/registry"
	"devdeck/internal/supervisor"
)

const waitPollInterval = 200 * time.Millisecond

// WaitDevReady polls until the app's dev server leaves starting. A server
// that disappears mid-wait died during startup and is reported as an error.
func (a *App) WaitDevReady(ctx context.Context, params UpParams) (supervisor.DevServerStatus, error) {
	var status supervisor.DevServerStatus
	app := strings.TrimSpace(params.App)
	if app == "" {
		return status, errors.New("app name is required")
	}

	seen := false
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		ticker := time.NewTicker(waitPollInterval)
		defer ticker.Stop()
		for {
			devs, err := client.ListDevServers(ctx)
			if err != nil {
				return fmt.Errorf("daemon dev list failed: %w", err)
			}
			var cur *supervisor.DevServerStatus
			for i := range devs {
				if devs[i].App == app {
					cur = &devs[i]
					break
				}
			}
			switch {
			case cur != nil:
				seen = true
				status = *cur
				if status.Status != registry.StatusStarting {
					return nil
				}
			case seen:
				return fmt.Errorf("dev server for %s exited during startup", app)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
	return status, err
}

// WaitTestDone polls until the app's test run records an exit code.
func (a *App) WaitTestDone(ctx context.Context, params TestParams) (supervisor.TestRunStatus, error) {
	var status supervisor.TestRunStatus
	app := strings.TrimSpace(params.App)
	if app == "" {
		return status, errors.New("app name is required")
	}

	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		ticker := time.NewTicker(waitPollInterval)
		defer ticker.Stop()
		for {
			runs, err := client.ListTestRuns(ctx)
			if err != nil {
				return fmt.Errorf("daemon test list failed: %w", err)
			}
			var cur *supervisor.TestRunStatus
			for i := range runs {
				if runs[i].App == app {
					cur = &runs[i]
					break
				}
			}
			if cur == nil {
				return fmt.Errorf("no test run tracked for %s", app)
			}
			status = *cur
			if status.ExitCode != nil {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
	return status, err
}

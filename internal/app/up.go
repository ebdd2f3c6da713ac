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

// UpParams configures a dev server start request.
type UpParams struct {
	App     string
	Timeout time.Duration
}

// Up asks the daemon to ensure a dev server is running for the app and
// returns its handle. Calling Up for an app that is already starting or
// running succeeds with the existing handle.
func (a *App) Up(ctx context.Context, params UpParams) (supervisor.DevServerStatus, error) {
	var status supervisor.DevServerStatus
	app := strings.TrimSpace(params.App)
	if app == "" {
		return status, errors.New("app name is required")
	}

	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		st, err := client.EnsureDevServer(ctx, app)
		if err != nil {
			return fmt.Errorf("daemon ensure failed: %w", err)
		}
		status = st
		return nil
	})
	return status, err
}

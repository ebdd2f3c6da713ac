package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devdeck/internal/daemon"
)

// DownParams configures a dev server stop request.
type DownParams struct {
	App     string
	Timeout time.Duration
}

// Down asks the daemon to stop the app's dev server. Stopping an app with
// no tracked dev server is a no-op.
func (a *App) Down(ctx context.Context, params DownParams) error {
	app := strings.TrimSpace(params.App)
	if app == "" {
		return errors.New("app name is required")
	}

	return a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		if err := client.StopDevServer(ctx, app); err != nil {
			return fmt.Errorf("daemon stop failed: %w", err)
		}
		return nil
	})
}

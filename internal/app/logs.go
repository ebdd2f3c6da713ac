package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devdeck/internal/daemon"
)

// LogsParams selects whose captured output to fetch.
type LogsParams struct {
	App     string
	Test    bool // test run output instead of the dev server's
	Timeout time.Duration
}

// Logs returns the captured output tail for the app's dev server, or for
// its latest test run when params.Test is set.
func (a *App) Logs(ctx context.Context, params LogsParams) ([]string, error) {
	app := strings.TrimSpace(params.App)
	if app == "" {
		return nil, errors.New("app name is required")
	}

	var lines []string
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		var err error
		if params.Test {
			lines, err = client.TestRunOutput(ctx, app)
		} else {
			lines, err = client.DevServerOutput(ctx, app)
		}
		if err != nil {
			return fmt.Errorf("daemon output failed: %w", err)
		}
		return nil
	})
	return lines, err
}

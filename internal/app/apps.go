package app

import (
	"context"
	"fmt"
	"time"

	"devdeck/internal/daemon"
)

// AppsParams bounds the catalog query.
type AppsParams struct {
	Timeout time.Duration
}

// Apps lists the workshop catalog as the daemon currently sees it.
func (a *App) Apps(ctx context.Context, params AppsParams) ([]daemon.AppInfo, error) {
	var apps []daemon.AppInfo
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		list, err := client.Apps(ctx)
		if err != nil {
			return fmt.Errorf("daemon apps failed: %w", err)
		}
		apps = list
		return nil
	})
	return apps, err
}

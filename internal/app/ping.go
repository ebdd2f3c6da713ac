package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ping contacts the daemon and returns its health response.
func (a *App) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return "", errors.New("timeout must be greater than 0")
	}
	if !daemonIsRunning() {
		return "", errors.New("daemon is not running")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := dialDaemonClient(ctx)
	if err != nil {
		return "", fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	msg, err := client.Ping(ctx)
	if err != nil {
		return "", fmt.Errorf("daemon ping failed: %w", err)
	}
	return msg, nil
}

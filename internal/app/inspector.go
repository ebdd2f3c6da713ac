package app

import (
	"context"
	"fmt"
	"time"

	"devdeck/internal/daemon"
)

// InspectorParams bounds the inspector calls.
type InspectorParams struct {
	Timeout time.Duration
}

// OpenInspector flips the process-wide inspector toggle on. Opening an
// already-open inspector succeeds without side effects.
func (a *App) OpenInspector(ctx context.Context, params InspectorParams) (bool, error) {
	var open bool
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		state, err := client.OpenInspector(ctx)
		if err != nil {
			return fmt.Errorf("daemon inspector open failed: %w", err)
		}
		open = state
		return nil
	})
	return open, err
}

// CloseInspector flips the process-wide inspector toggle off.
func (a *App) CloseInspector(ctx context.Context, params InspectorParams) (bool, error) {
	var open bool
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		state, err := client.CloseInspector(ctx)
		if err != nil {
			return fmt.Errorf("daemon inspector close failed: %w", err)
		}
		open = state
		return nil
	})
	return open, err
}

// InspectorState reports whether the inspector toggle is currently open.
func (a *App) InspectorState(ctx context.Context, params InspectorParams) (bool, error) {
	var open bool
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client *daemon.Client) error {
		state, err := client.InspectorState(ctx)
		if err != nil {
			return fmt.Errorf("daemon inspector state failed: %w", err)
		}
		open = state
		return nil
	})
	return open, err
}

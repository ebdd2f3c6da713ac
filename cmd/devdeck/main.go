package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
	"devdeck/internal/daemon"
	"devdeck/internal/supervisor"
)

var rootCmd = &cobra.Command{
	Use:   "devdeck [command]",
	Short: "devdeck: workshop dev server and test runner",
	Long:  `devdeck keeps one dev server per workshop app on its own port and runs their test suites, all managed by a per-user daemon.`,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
}

// controllerAPI is the surface of app.App the commands consume; tests swap
// controllerFactory for a stub.
type controllerAPI interface {
	Ping(ctx context.Context, timeout time.Duration) (string, error)
	Up(ctx context.Context, params app.UpParams) (supervisor.DevServerStatus, error)
	WaitDevReady(ctx context.Context, params app.UpParams) (supervisor.DevServerStatus, error)
	Down(ctx context.Context, params app.DownParams) error
	RunTest(ctx context.Context, params app.TestParams) (supervisor.TestRunStatus, error)
	StopTest(ctx context.Context, params app.TestParams) error
	WaitTestDone(ctx context.Context, params app.TestParams) (supervisor.TestRunStatus, error)
	Snapshot(ctx context.Context, params app.StatusParams) (app.Snapshot, error)
	Apps(ctx context.Context, params app.AppsParams) ([]daemon.AppInfo, error)
	Logs(ctx context.Context, params app.LogsParams) ([]string, error)
	OpenInspector(ctx context.Context, params app.InspectorParams) (bool, error)
	CloseInspector(ctx context.Context, params app.InspectorParams) (bool, error)
	InspectorState(ctx context.Context, params app.InspectorParams) (bool, error)
	Status() (app.DaemonStatus, error)
	StopDaemon(force bool) error
	StartDaemon() (*app.DaemonHandle, error)
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath})
}

func controller() controllerAPI {
	return controllerFactory()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

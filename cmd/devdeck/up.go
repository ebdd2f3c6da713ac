package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"devdeck/internal/app"
	"devdeck/internal/registry"
)

func init() {
	rootCmd.AddCommand(cmdUp)
}

var (
	upWait           bool
	upTimeoutSeconds int
)

func init() {
	cmdUp.Flags().BoolVarP(&upWait, "wait", "w", false, "Block until the dev server reports ready")
	cmdUp.Flags().IntVarP(&upTimeoutSeconds, "timeout", "t", 30, "Timeout in seconds for the daemon call")
}

var cmdUp = &cobra.Command{
	Use:   "up <app>",
	Short: "Ensure the app's dev server is running",
	Long:  `Starts the dev server for the named workshop app on the lowest free port. Running up twice is safe: an app that is already starting or running keeps its server and port.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		params := app.UpParams{
			App:     args[0],
			Timeout: time.Duration(upTimeoutSeconds) * time.Second,
		}
		status, err := ctrl.Up(cmd.Context(), params)
		if err != nil {
			return err
		}

		if upWait && status.Status == registry.StatusStarting {
			spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			spin.Suffix = fmt.Sprintf(" Waiting for %s...", status.App)
			spin.Start()
			status, err = ctrl.WaitDevReady(cmd.Context(), params)
			spin.Stop()
			if err != nil {
				return err
			}
		}

		dot := colorFor(status.Color).Sprint("●")
		state := statusColor(status.Status).Sprint(string(status.Status))
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s on port %d (pid %d)\n", dot, status.App, state, status.Port, status.PID)
		return nil
	},
}

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdStatus)
}

var (
	statusJSON           bool
	statusTimeoutSeconds int
)

func init() {
	cmdStatus.Flags().BoolVar(&statusJSON, "json", false, "Print the raw snapshot as JSON")
	cmdStatus.Flags().IntVarP(&statusTimeoutSeconds, "timeout", "t", 5, "Timeout in seconds for the daemon call")
}

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Show tracked dev servers and test runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		out := cmd.OutOrStdout()

		ds, err := ctrl.Status()
		if err != nil {
			return err
		}
		if !ds.Running {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}

		snap, err := ctrl.Snapshot(cmd.Context(), app.StatusParams{
			Timeout: time.Duration(statusTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		inspector := "closed"
		if snap.Inspector {
			inspector = "open"
		}
		fmt.Fprintf(out, "Daemon running (pid %d) — %d apps, ports %d-%d (%d in use), inspector %s\n",
			snap.Daemon.PID, snap.Daemon.Apps, snap.Daemon.PortMin, snap.Daemon.PortMax,
			snap.Daemon.PortsInUse, inspector)

		fmt.Fprintln(out, "\nDev servers:")
		if len(snap.DevServers) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, s := range snap.DevServers {
			dot := colorFor(s.Color).Sprint("●")
			state := statusColor(s.Status).Sprint(string(s.Status))
			fmt.Fprintf(out, "  %s %-16s %-8s port %-5d pid %d\n", dot, s.App, state, s.Port, s.PID)
		}

		fmt.Fprintln(out, "\nTest runs:")
		if len(snap.TestRuns) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, r := range snap.TestRuns {
			state := statusColor(r.Status).Sprint(string(r.Status))
			line := fmt.Sprintf("  %-18s %-8s run %s pid %d", r.App, state, r.RunID, r.PID)
			if r.ExitCode != nil {
				line += fmt.Sprintf(" exit %d", *r.ExitCode)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

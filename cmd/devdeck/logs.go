package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdLogs)
}

var (
	logsTest           bool
	logsTimeoutSeconds int
)

func init() {
	cmdLogs.Flags().BoolVar(&logsTest, "test", false, "Show the latest test run output instead of the dev server's")
	cmdLogs.Flags().IntVarP(&logsTimeoutSeconds, "timeout", "t", 5, "Timeout in seconds for the daemon call")
}

var cmdLogs = &cobra.Command{
	Use:   "logs <app>",
	Short: "Show the captured output tail for an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := controller().Logs(cmd.Context(), app.LogsParams{
			App:     args[0],
			Test:    logsTest,
			Timeout: time.Duration(logsTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(lines) == 0 {
			fmt.Fprintln(out, "(no output captured)")
			return nil
		}
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

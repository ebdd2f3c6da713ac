package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdDown)
}

var downTimeoutSeconds int

func init() {
	cmdDown.Flags().IntVarP(&downTimeoutSeconds, "timeout", "t", 10, "Timeout in seconds for the daemon call")
}

var cmdDown = &cobra.Command{
	Use:   "down <app>",
	Short: "Stop the app's dev server",
	Long:  `Signals the app's dev server to terminate and frees its port once it exits. Running down for an app with no dev server is a no-op.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := controller().Down(cmd.Context(), app.DownParams{
			App:     args[0],
			Timeout: time.Duration(downTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stop requested for %s\n", args[0])
		return nil
	},
}

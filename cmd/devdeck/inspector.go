package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdInspector)
	cmdInspector.AddCommand(cmdInspectorOpen, cmdInspectorClose, cmdInspectorStatus)
}

var inspectorTimeoutSeconds int

func init() {
	cmdInspector.PersistentFlags().IntVarP(&inspectorTimeoutSeconds, "timeout", "t", 5, "Timeout in seconds for the daemon call")
}

var cmdInspector = &cobra.Command{
	Use:   "inspector",
	Short: "Control the shared debug inspector toggle",
	Long:  `While the inspector is open, newly started dev servers get the debug inspector enabled. Opening or closing twice in a row is a no-op.`,
}

func inspectorParams() app.InspectorParams {
	return app.InspectorParams{Timeout: time.Duration(inspectorTimeoutSeconds) * time.Second}
}

func printInspectorState(cmd *cobra.Command, open bool) {
	state := "closed"
	if open {
		state = "open"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inspector is %s\n", state)
}

var cmdInspectorOpen = &cobra.Command{
	Use:   "open",
	Short: "Open the inspector for new dev servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := controller().OpenInspector(cmd.Context(), inspectorParams())
		if err != nil {
			return err
		}
		printInspectorState(cmd, open)
		return nil
	},
}

var cmdInspectorClose = &cobra.Command{
	Use:   "close",
	Short: "Close the inspector",
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := controller().CloseInspector(cmd.Context(), inspectorParams())
		if err != nil {
			return err
		}
		printInspectorState(cmd, open)
		return nil
	},
}

var cmdInspectorStatus = &cobra.Command{
	Use:   "status",
	Short: "Show whether the inspector is open",
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := controller().InspectorState(cmd.Context(), inspectorParams())
		if err != nil {
			return err
		}
		printInspectorState(cmd, open)
		return nil
	},
}

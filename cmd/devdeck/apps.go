package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdApps)
}

var appsTimeoutSeconds int

func init() {
	cmdApps.Flags().IntVarP(&appsTimeoutSeconds, "timeout", "t", 5, "Timeout in seconds for the daemon call")
}

var cmdApps = &cobra.Command{
	Use:   "apps",
	Short: "List the workshop catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		apps, err := controller().Apps(cmd.Context(), app.AppsParams{
			Timeout: time.Duration(appsTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(apps) == 0 {
			fmt.Fprintln(out, "No apps in the workshop manifest")
			return nil
		}
		for _, a := range apps {
			name := a.Name
			if a.DisplayName != "" && a.DisplayName != a.Name {
				name = fmt.Sprintf("%s (%s)", a.Name, a.DisplayName)
			}
			fmt.Fprintf(out, "%-28s %s\n", name, a.Path)
		}
		return nil
	},
}

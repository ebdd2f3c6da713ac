package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"devdeck/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdTest)
}

var (
	testStop           bool
	testWait           bool
	testTimeoutSeconds int
)

func init() {
	cmdTest.Flags().BoolVar(&testStop, "stop", false, "Interrupt the app's running test suite instead of starting one")
	cmdTest.Flags().BoolVarP(&testWait, "wait", "w", false, "Block until the test run finishes and report its result")
	cmdTest.Flags().IntVarP(&testTimeoutSeconds, "timeout", "t", 600, "Timeout in seconds for the daemon call")
}

var cmdTest = &cobra.Command{
	Use:   "test <app>",
	Short: "Run (or stop) the app's test suite",
	Long:  `Starts the app's test command and records its exit code. A second test while one is running returns the in-flight run. The result stays queryable after the run finishes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		params := app.TestParams{
			App:     args[0],
			Timeout: time.Duration(testTimeoutSeconds) * time.Second,
		}

		if testStop {
			if err := ctrl.StopTest(cmd.Context(), params); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stop requested for %s tests\n", args[0])
			return nil
		}

		status, err := ctrl.RunTest(cmd.Context(), params)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Test run %s started for %s (pid %d)\n", status.RunID, status.App, status.PID)

		if !testWait {
			return nil
		}
		spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" Running %s tests...", status.App)
		spin.Start()
		status, err = ctrl.WaitTestDone(cmd.Context(), params)
		spin.Stop()
		if err != nil {
			return err
		}

		code := *status.ExitCode
		if code == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", color.New(color.FgGreen).Sprintf("%s tests passed", status.App))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", color.New(color.FgRed).Sprintf("%s tests failed (exit %d)", status.App, code))
		return fmt.Errorf("tests for %s exited with code %d", status.App, code)
	},
}

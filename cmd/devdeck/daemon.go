package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"devdeck/internal/daemon"
)

func init() {
	rootCmd.AddCommand(cmdDaemon)
	cmdDaemon.AddCommand(cmdDaemonStop)
}

var daemonForceRestart bool

func init() {
	cmdDaemon.Flags().BoolVarP(&daemonForceRestart, "force", "f", false, "Restart the daemon if it is already running")
}

var cmdDaemon = &cobra.Command{
	Use:   "daemon",
	Short: "Start the daemon process in the foreground",
	Long:  `The daemon owns the dev servers and test runs for the workshop. If it is not running it will be started; otherwise nothing happens unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 0) check if the daemon is running
		if daemon.IsRunning() {
			if !daemonForceRestart {
				pid, err := daemon.RunningPID()
				message := "Daemon is already running. Stop it manually or re-run with --force."
				if err == nil && pid != 0 {
					message = fmt.Sprintf("Daemon is already running (pid %d). Stop it manually or re-run with --force.", pid)
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stopping existing daemon process...")
			if err := daemon.StopRunningDaemon(true); err != nil {
				return err
			}
		}
		// 1) Not running, so start it
		handle, err := controller().StartDaemon()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Started daemon process")
		runSpin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
		runSpin.Suffix = " Running..."
		runSpin.Start()

		// 2) Wait for SIGINT or SIGTERM to stop
		sigc := make(chan os.Signal, 2)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		runSpin.Stop()
		return handle.Close()
	},
}

var daemonStopForce bool

func init() {
	cmdDaemonStop.Flags().BoolVarP(&daemonStopForce, "force", "f", false, "Escalate to SIGKILL if the daemon ignores SIGTERM")
}

var cmdDaemonStop = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := controller().StopDaemon(daemonStopForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
		return nil
	},
}

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"devdeck/internal/config"
	"devdeck/internal/daemon"
)

func main() {
	configPath := flag.String("config", "", "Path to the daemon JSON config file")
	force := flag.Bool("force", false, "Replace a running daemon instead of refusing to start")
	flag.Parse()

	if daemon.IsRunning() {
		if !*force {
			pid, err := daemon.RunningPID()
			if err != nil {
				log.Fatalf("daemon appears to be running but the pid file is unreadable: %v", err)
			}
			log.Printf("devdeck daemon already running (pid %d); use --force to replace it", pid)
			return
		}
		log.Printf("Replacing running daemon...")
		if err := daemon.StopRunningDaemon(true); err != nil {
			log.Fatalf("stop running daemon: %v", err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	srv, err := daemon.StartDaemon(cfg)
	if err != nil {
		log.Fatalf("start daemon: %v", err)
	}
	log.Printf("devdeck daemon up (pid %d), workshop %s. Ctrl+C to stop.", os.Getpid(), cfg.WorkshopFile)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Printf("Shutting down...")
	if err := srv.Close(); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Printf("Daemon stopped")
}

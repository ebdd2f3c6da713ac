package main

import (
	"flag"
	"log"

	"devdeck/internal/app"
	"devdeck/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to the daemon JSON config file")
	flag.Parse()

	ctrl := app.New(app.Options{ConfigPath: *configPath})
	if err := tui.Run(ctrl); err != nil {
		log.Fatalf("workshop dashboard exited with error: %v", err)
	}
}

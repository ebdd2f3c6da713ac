package main

import (
	"github.com/fatih/color"

	"devdeck/internal/registry"
)

// colorFor maps a handle's assigned color name to a printable color.
func colorFor(name string) *color.Color {
	switch name {
	case "cyan":
		return color.New(color.FgCyan)
	case "magenta":
		return color.New(color.FgMagenta)
	case "green":
		return color.New(color.FgGreen)
	case "yellow":
		return color.New(color.FgYellow)
	case "blue":
		return color.New(color.FgBlue)
	case "red":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

func statusColor(status registry.Status) *color.Color {
	switch status {
	case registry.StatusStarting:
		return color.New(color.FgYellow)
	case registry.StatusRunning:
		return color.New(color.FgGreen)
	case registry.StatusCrashed:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

package daemon

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the daemon logger at the given level. Unknown level
// strings fall back to info.
func NewLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

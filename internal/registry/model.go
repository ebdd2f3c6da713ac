package registry

import "time"

// Status describes where a managed process is in its lifecycle.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusCrashed  Status = "crashed"
)

// Handle is one managed process entry. It is immutable outside registry
// methods; callers always receive copies.
type Handle struct {
	App       string
	PID       int
	Port      int    // dev servers only
	Color     string // dev servers only
	Status    Status
	ExitCode  *int   // recorded by the exit watcher
	RunID     string // test runs only
	StartedAt time.Time
}

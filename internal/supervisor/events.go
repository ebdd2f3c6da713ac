package supervisor

import "devdeck/internal/registry"

// Class separates the two kinds of managed processes.
type Class string

const (
	ClassDev  Class = "dev"
	ClassTest Class = "test"
)

// EventType identifies a lifecycle transition.
type EventType string

const (
	EventStarted  EventType = "started"
	EventReady    EventType = "ready"
	EventStopping EventType = "stopping"
	EventExited   EventType = "exited"
)

// Event describes one lifecycle transition of a managed process.
type Event struct {
	Class    Class
	App      string
	Type     EventType
	Status   registry.Status
	PID      int
	Port     int    // dev only
	RunID    string // test only
	ExitCode *int   // exited only
}

// Events exposes the lifecycle stream. The channel is never closed; emission
// drops events when no consumer keeps up.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

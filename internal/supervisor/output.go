package supervisor

import "sync"

const defaultTailLines = 200

// tail keeps the last N lines a child wrote, for the logs verb and the TUI.
type tail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) append(line string) {
	t.mu.Lock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
	t.mu.Unlock()
}

func (t *tail) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// DevServerOutput returns the captured tail of the app's most recent dev
// server, kept until the next spawn replaces it.
func (s *Supervisor) DevServerOutput(app string) ([]string, bool) {
	sl := s.slotFor(app)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.devOut == nil {
		return nil, false
	}
	return sl.devOut.snapshot(), true
}

// TestRunOutput returns the captured tail of the app's most recent test run.
func (s *Supervisor) TestRunOutput(app string) ([]string, bool) {
	sl := s.slotFor(app)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.testOut == nil {
		return nil, false
	}
	return sl.testOut.snapshot(), true
}

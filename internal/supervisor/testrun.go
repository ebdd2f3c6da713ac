package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"devdeck/internal/registry"
)

// RunTest starts the test command for app unless a run is already in flight,
// in which case the existing handle is returned unchanged. A finished run is
// replaced by the new one; its handle stays queryable until then.
func (s *Supervisor) RunTest(ctx context.Context, app string) (registry.Handle, error) {
	a, ok := s.catalog.Lookup(app)
	if !ok {
		return registry.Handle{}, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}

	for {
		sl := s.slotFor(app)
		sl.mu.Lock()

		if h, ok := s.tests.Get(app); ok && sl.test != nil {
			if h.Status == registry.StatusStarting || h.Status == registry.StatusRunning {
				sl.mu.Unlock()
				return h, nil
			}
			// Stop requested but exit unconfirmed: wait it out, then rerun.
			done := sl.test.done
			sl.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return registry.Handle{}, ctx.Err()
			}
			continue
		}

		c, err := start(a.TestCommand, a.FullPath, os.Environ())
		if err != nil {
			sl.mu.Unlock()
			return registry.Handle{}, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, app, err)
		}

		h := registry.Handle{
			App:       app,
			PID:       c.pid,
			Status:    registry.StatusRunning,
			RunID:     uuid.NewString(),
			StartedAt: time.Now().UTC(),
		}
		s.tests.Upsert(h)
		sl.test = c
		sl.testOut = c.out
		go s.watchTest(app, sl, c)
		sl.mu.Unlock()

		s.emit(Event{Class: ClassTest, App: app, Type: EventStarted, Status: h.Status, PID: h.PID, RunID: h.RunID})
		s.log.Info("test run started", "app", app, "pid", h.PID, "run_id", h.RunID)
		return h, nil
	}
}

// StopTest cancels the in-flight test run for app. Absent or finished runs
// are a no-op.
func (s *Supervisor) StopTest(app string) error {
	sl := s.slotFor(app)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	h, ok := s.tests.Get(app)
	if !ok || sl.test == nil {
		return nil
	}
	if h.Status == registry.StatusStopped {
		return nil
	}

	h.Status = registry.StatusStopped
	s.tests.Upsert(h)
	s.emit(Event{Class: ClassTest, App: app, Type: EventStopping, Status: h.Status, PID: h.PID, RunID: h.RunID})
	s.log.Info("stopping test run", "app", app, "pid", h.PID)
	s.kill(sl.test)
	return nil
}

// watchTest drains one test child and records its exit. Unlike dev servers,
// the handle is kept in the registry so the exit code stays queryable.
func (s *Supervisor) watchTest(app string, sl *slot, c *child) {
	sc := bufio.NewScanner(c.stdout)
	for sc.Scan() {
		c.out.append(sc.Text())
	}
	if sc.Err() != nil {
		// Keep draining so the child cannot block on a full pipe.
		io.Copy(io.Discard, c.stdout)
	}

	code := exitCode(c.cmd.Wait())

	sl.mu.Lock()
	if h, ok := s.tests.Get(app); ok && sl.test == c {
		final := classify(h.Status == registry.StatusStopped, code)
		h.Status = final
		h.ExitCode = &code
		s.tests.Upsert(h)
		s.emit(Event{Class: ClassTest, App: app, Type: EventExited, Status: final, PID: h.PID, RunID: h.RunID, ExitCode: &code})
		s.log.Info("test run finished", "app", app, "pid", h.PID, "exit_code", code, "status", final)
	}
	if sl.test == c {
		sl.test = nil
	}
	close(c.done)
	sl.mu.Unlock()
}

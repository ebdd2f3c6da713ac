package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"devdeck/internal/catalog"
	"devdeck/internal/ports"
	"devdeck/internal/registry"
)

// palette is cycled across dev servers at spawn time so each app keeps a
// stable accent color in dashboards and prefixed output.
var palette = []string{"cyan", "magenta", "green", "yellow", "blue", "red"}

// Options configures a Supervisor.
type Options struct {
	Catalog    *catalog.Catalog
	Ports      *ports.Allocator
	ReadyGrace time.Duration // silent children are marked running after this
	Logger     *log.Logger
}

// Supervisor owns every process devdeck spawns: at most one dev server and
// one test run per app. All state lives for the daemon's lifetime only;
// nothing is persisted and a restarted daemon starts empty.
type Supervisor struct {
	catalog    *catalog.Catalog
	ports      *ports.Allocator
	dev        *registry.Registry
	tests      *registry.Registry
	readyGrace time.Duration
	log        *log.Logger
	insp       *Inspector
	events     chan Event

	mu       sync.Mutex
	slots    map[string]*slot
	colorIdx int

	// Overridable in tests.
	signal func(pid int, sig syscall.Signal) error
}

// slot serializes lifecycle work for one app name. dev and test point at the
// live child per class and are nil once its exit watcher finished; the out
// tails survive until the next spawn replaces them.
type slot struct {
	mu      sync.Mutex
	dev     *child
	test    *child
	devOut  *tail
	testOut *tail
}

// New returns a ready supervisor. Registries start empty.
func New(opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	grace := opts.ReadyGrace
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return &Supervisor{
		catalog:    opts.Catalog,
		ports:      opts.Ports,
		dev:        registry.New(),
		tests:      registry.New(),
		readyGrace: grace,
		log:        logger.With("component", "supervisor"),
		insp:       &Inspector{},
		events:     make(chan Event, 64),
		slots:      make(map[string]*slot),
		signal:     syscall.Kill,
	}
}

// Inspector returns the daemon-wide debugger toggle.
func (s *Supervisor) Inspector() *Inspector {
	return s.insp
}

func (s *Supervisor) slotFor(app string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[app]
	if !ok {
		sl = &slot{}
		s.slots[app] = sl
	}
	return sl
}

func (s *Supervisor) nextColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := palette[s.colorIdx%len(palette)]
	s.colorIdx++
	return c
}

// EnsureDevServer starts the dev server for app unless one is already
// starting or running. Concurrent calls for the same app converge on a
// single spawn and every caller receives the same handle. If a previous
// process is still on its way out, the call waits for that exit cleanup
// before spawning into the slot.
func (s *Supervisor) EnsureDevServer(ctx context.Context, app string) (registry.Handle, error) {
	a, ok := s.catalog.Lookup(app)
	if !ok {
		return registry.Handle{}, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}

	for {
		sl := s.slotFor(app)
		sl.mu.Lock()

		if h, ok := s.dev.Get(app); ok {
			if h.Status == registry.StatusStarting || h.Status == registry.StatusRunning {
				sl.mu.Unlock()
				return h, nil
			}
			var done chan struct{}
			if sl.dev != nil {
				done = sl.dev.done
			}
			sl.mu.Unlock()
			if done == nil {
				continue
			}
			select {
			case <-done:
			case <-ctx.Done():
				return registry.Handle{}, ctx.Err()
			}
			continue
		}

		port, err := s.ports.Allocate()
		if err != nil {
			sl.mu.Unlock()
			return registry.Handle{}, fmt.Errorf("dev server for %s: %w", app, err)
		}

		env := append(os.Environ(), fmt.Sprintf("PORT=%d", port))
		if s.insp.IsOpen() {
			env = append(env, "NODE_OPTIONS=--inspect")
		}
		c, err := start(a.DevCommand, a.FullPath, env)
		if err != nil {
			s.ports.Release(port)
			sl.mu.Unlock()
			return registry.Handle{}, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, app, err)
		}

		h := registry.Handle{
			App:       app,
			PID:       c.pid,
			Port:      port,
			Color:     s.nextColor(),
			Status:    registry.StatusStarting,
			StartedAt: time.Now().UTC(),
		}
		s.dev.Upsert(h)
		sl.dev = c
		sl.devOut = c.out
		go s.watchDev(app, sl, c)
		sl.mu.Unlock()

		s.emit(Event{Class: ClassDev, App: app, Type: EventStarted, Status: h.Status, PID: h.PID, Port: h.Port})
		s.log.Info("dev server starting", "app", app, "pid", h.PID, "port", h.Port, "color", h.Color)
		return h, nil
	}
}

// StopDevServer signals the dev server for app once. Absent handles and
// handles already on their way out are a no-op. Removal happens only when
// the exit watcher confirms the process is gone.
func (s *Supervisor) StopDevServer(app string) error {
	sl := s.slotFor(app)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	h, ok := s.dev.Get(app)
	if !ok {
		return nil
	}
	if h.Status == registry.StatusStopped || h.Status == registry.StatusCrashed {
		return nil
	}

	h.Status = registry.StatusStopped
	s.dev.Upsert(h)
	s.emit(Event{Class: ClassDev, App: app, Type: EventStopping, Status: h.Status, PID: h.PID, Port: h.Port})
	s.log.Info("stopping dev server", "app", app, "pid", h.PID)
	if sl.dev != nil {
		s.kill(sl.dev)
	}
	return nil
}

// watchDev follows one dev-server child from first output to exit. It is the
// only goroutine that waits on the child and the only place a dev handle is
// removed.
func (s *Supervisor) watchDev(app string, sl *slot, c *child) {
	grace := time.AfterFunc(s.readyGrace, func() { s.markDevReady(app, sl, c) })
	defer grace.Stop()

	first := true
	sc := bufio.NewScanner(c.stdout)
	for sc.Scan() {
		c.out.append(sc.Text())
		if first {
			first = false
			grace.Stop()
			s.markDevReady(app, sl, c)
		}
	}
	if sc.Err() != nil {
		// Keep draining so the child cannot block on a full pipe.
		io.Copy(io.Discard, c.stdout)
	}

	code := exitCode(c.cmd.Wait())

	sl.mu.Lock()
	if h, ok := s.dev.Get(app); ok && sl.dev == c {
		final := classify(h.Status == registry.StatusStopped, code)
		h.Status = final
		h.ExitCode = &code
		s.dev.Upsert(h)
		s.emit(Event{Class: ClassDev, App: app, Type: EventExited, Status: final, PID: h.PID, Port: h.Port, ExitCode: &code})
		s.ports.Release(h.Port)
		s.dev.Remove(app)
		s.log.Info("dev server exited", "app", app, "pid", h.PID, "exit_code", code, "status", final)
	}
	if sl.dev == c {
		sl.dev = nil
	}
	close(c.done)
	sl.mu.Unlock()
}

// markDevReady flips a starting handle to running. Safe to call twice; the
// grace timer and the first-output path may race.
func (s *Supervisor) markDevReady(app string, sl *slot, c *child) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.dev != c {
		return
	}
	h, ok := s.dev.Get(app)
	if !ok || h.Status != registry.StatusStarting {
		return
	}
	h.Status = registry.StatusRunning
	s.dev.Upsert(h)
	s.emit(Event{Class: ClassDev, App: app, Type: EventReady, Status: h.Status, PID: h.PID, Port: h.Port})
	s.log.Info("dev server ready", "app", app, "port", h.Port)
}

// kill sends SIGTERM to the child's process group, falling back to the bare
// pid when the group signal fails.
func (s *Supervisor) kill(c *child) {
	if err := s.signal(-c.pid, syscall.SIGTERM); err != nil {
		if err := s.signal(c.pid, syscall.SIGTERM); err != nil {
			s.log.Warn("signal failed", "pid", c.pid, "err", err)
		}
	}
}

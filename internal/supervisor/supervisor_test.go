package supervisor

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"devdeck/internal/ports"
	"devdeck/internal/registry"
)

func TestEnsureDevServerUnknownApp(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, time.Second, []testApp{{name: "known", dev: "sleep 60"}})

	_, err := s.EnsureDevServer(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
	if s.ports.InUse() != 0 {
		t.Fatalf("expected no ports allocated, got %d", s.ports.InUse())
	}
	if s.dev.Len() != 0 {
		t.Fatalf("expected empty registry, got %d handles", s.dev.Len())
	}
}

func TestEnsureDevServerSpawnFailureReleasesPort(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, time.Second, []testApp{
		{name: "broken", dev: "sleep 60", dir: "/devdeck-test-missing-dir"},
		{name: "fine", dev: "sleep 60"},
	})

	_, err := s.EnsureDevServer(context.Background(), "broken")
	if !errors.Is(err, ErrSpawnFailed) {
		t.Fatalf("expected ErrSpawnFailed, got %v", err)
	}
	if _, ok := s.dev.Get("broken"); ok {
		t.Fatalf("expected no handle after failed spawn")
	}
	if s.ports.InUse() != 0 {
		t.Fatalf("expected port released after failed spawn, got %d in use", s.ports.InUse())
	}

	h, err := s.EnsureDevServer(context.Background(), "fine")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)
	if h.Port != 3000 {
		t.Fatalf("expected lowest port 3000 after failed spawn, got %d", h.Port)
	}
}

func TestEnsureDevServerConcurrent(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "echo ready; sleep 60"}})

	const n = 8
	handles := make(chan registry.Handle, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := s.EnsureDevServer(context.Background(), "app")
			if err != nil {
				errs <- err
				return
			}
			handles <- h
		}()
	}
	wg.Wait()
	close(handles)
	close(errs)

	for err := range errs {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}

	var first registry.Handle
	count := 0
	for h := range handles {
		if count == 0 {
			first = h
			reap(t, h.PID)
		} else if h.PID != first.PID || h.Port != first.Port {
			t.Fatalf("handles diverged: %+v vs %+v", first, h)
		}
		count++
	}
	if count != n {
		t.Fatalf("expected %d handles, got %d", n, count)
	}
	if s.dev.Len() != 1 {
		t.Fatalf("expected exactly one registry entry, got %d", s.dev.Len())
	}
	if s.ports.InUse() != 1 {
		t.Fatalf("expected exactly one port in use, got %d", s.ports.InUse())
	}

	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("StopDevServer returned error: %v", err)
	}
	waitDevRemoved(t, s, "app")
}

func TestEnsureDevServerIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "sleep 60"}})

	h1, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h1.PID)

	h2, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("second EnsureDevServer returned error: %v", err)
	}
	if h2.PID != h1.PID || h2.Port != h1.Port || h2.Color != h1.Color {
		t.Fatalf("expected identical handle, got %+v vs %+v", h1, h2)
	}

	s.StopDevServer("app")
	waitDevRemoved(t, s, "app")
}

func TestDevServerReadyOnFirstOutput(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "echo ready; sleep 60"}})
	events := s.Events()

	h, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)
	if h.Status != registry.StatusStarting {
		t.Fatalf("expected starting handle, got %s", h.Status)
	}

	waitEvent(t, events, func(ev Event) bool {
		return ev.App == "app" && ev.Type == EventReady
	})
	list := s.ListDevServers()
	if len(list) != 1 || list[0].Status != registry.StatusRunning {
		t.Fatalf("expected running dev server, got %+v", list)
	}

	s.StopDevServer("app")
	waitDevRemoved(t, s, "app")
}

func TestDevServerReadyAfterGraceWhenSilent(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 150*time.Millisecond, []testApp{{name: "app", dev: "sleep 60"}})
	events := s.Events()

	h, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)

	waitEvent(t, events, func(ev Event) bool {
		return ev.App == "app" && ev.Type == EventReady
	})
	list := s.ListDevServers()
	if len(list) != 1 || list[0].Status != registry.StatusRunning {
		t.Fatalf("expected running dev server, got %+v", list)
	}

	s.StopDevServer("app")
	waitDevRemoved(t, s, "app")
}

func TestDevServerPortAssignmentScenario(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{
		{name: "a", dev: "sleep 60"},
		{name: "b", dev: "sleep 60"},
		{name: "c", dev: "sleep 60"},
		{name: "d", dev: "sleep 60"},
	})

	want := map[string]int{"a": 3000, "b": 3001, "c": 3002}
	for _, app := range []string{"a", "b", "c"} {
		h, err := s.EnsureDevServer(context.Background(), app)
		if err != nil {
			t.Fatalf("EnsureDevServer(%s) returned error: %v", app, err)
		}
		reap(t, h.PID)
		if h.Port != want[app] {
			t.Fatalf("expected %s on port %d, got %d", app, want[app], h.Port)
		}
	}

	if _, err := s.EnsureDevServer(context.Background(), "d"); !errors.Is(err, ports.ErrExhausted) {
		t.Fatalf("expected ErrExhausted for d, got %v", err)
	}
	if _, ok := s.dev.Get("d"); ok {
		t.Fatalf("expected no handle for d after exhaustion")
	}

	if err := s.StopDevServer("b"); err != nil {
		t.Fatalf("StopDevServer(b) returned error: %v", err)
	}
	waitDevRemoved(t, s, "b")

	h, err := s.EnsureDevServer(context.Background(), "d")
	if err != nil {
		t.Fatalf("EnsureDevServer(d) returned error: %v", err)
	}
	reap(t, h.PID)
	if h.Port != 3001 {
		t.Fatalf("expected d to take freed port 3001, got %d", h.Port)
	}
	if s.ports.InUse() != 3 {
		t.Fatalf("expected 3 ports in use, got %d", s.ports.InUse())
	}

	for _, app := range []string{"a", "c", "d"} {
		s.StopDevServer(app)
		waitDevRemoved(t, s, app)
	}
}

func TestStopDevServerSignalsOnce(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "sleep 60"}})

	h, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)

	var mu sync.Mutex
	signals := 0
	s.signal = func(pid int, sig syscall.Signal) error {
		mu.Lock()
		signals++
		mu.Unlock()
		return nil // swallowed; the child keeps running
	}

	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("StopDevServer returned error: %v", err)
	}
	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("second StopDevServer returned error: %v", err)
	}

	mu.Lock()
	got := signals
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected exactly one signal, got %d", got)
	}

	// The handle stays registered as stopped until the exit is confirmed.
	reg, ok := s.dev.Get("app")
	if !ok || reg.Status != registry.StatusStopped {
		t.Fatalf("expected stopped handle still registered, got %+v ok=%v", reg, ok)
	}

	syscall.Kill(-h.PID, syscall.SIGTERM)
	waitDevRemoved(t, s, "app")
}

func TestStopDevServerAbsentIsNoop(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, time.Second, []testApp{{name: "app", dev: "sleep 60"}})

	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("expected no-op for absent handle, got %v", err)
	}
	if err := s.StopDevServer("never-cataloged"); err != nil {
		t.Fatalf("expected no-op for uncataloged name, got %v", err)
	}
}

func TestDevServerCrashRecordedThenRemoved(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "exit 3"}})
	events := s.Events()

	if _, err := s.EnsureDevServer(context.Background(), "app"); err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}

	ev := waitEvent(t, events, exited(ClassDev, "app"))
	if ev.Status != registry.StatusCrashed {
		t.Fatalf("expected crashed status, got %s", ev.Status)
	}
	if ev.ExitCode == nil || *ev.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %v", ev.ExitCode)
	}

	waitDevRemoved(t, s, "app")
	if s.ports.InUse() != 0 {
		t.Fatalf("expected port released after crash, got %d in use", s.ports.InUse())
	}
}

func TestDevServerCleanExitRecordedAsStopped(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "echo done"}})
	events := s.Events()

	if _, err := s.EnsureDevServer(context.Background(), "app"); err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}

	ev := waitEvent(t, events, exited(ClassDev, "app"))
	if ev.Status != registry.StatusStopped {
		t.Fatalf("expected stopped status for clean exit, got %s", ev.Status)
	}
	if ev.ExitCode == nil || *ev.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", ev.ExitCode)
	}
	waitDevRemoved(t, s, "app")
}

func TestStopDevServerExitClassifiedStopped(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{{name: "app", dev: "sleep 60"}})
	events := s.Events()

	h, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)

	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("StopDevServer returned error: %v", err)
	}
	ev := waitEvent(t, events, exited(ClassDev, "app"))
	if ev.Status != registry.StatusStopped {
		t.Fatalf("expected stopped after requested stop, got %s", ev.Status)
	}
	waitDevRemoved(t, s, "app")
	if s.ports.InUse() != 0 {
		t.Fatalf("expected port released, got %d in use", s.ports.InUse())
	}
}

func TestEnsureAfterStopWaitsForCleanup(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3001, 10*time.Second, []testApp{{name: "app", dev: "sleep 60"}})

	h1, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h1.PID)

	if err := s.StopDevServer("app"); err != nil {
		t.Fatalf("StopDevServer returned error: %v", err)
	}

	// Without waiting for the exit, ensure again: the call must block until
	// the old process is cleaned up, then spawn a fresh one.
	h2, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer after stop returned error: %v", err)
	}
	reap(t, h2.PID)

	if h2.PID == h1.PID {
		t.Fatalf("expected a fresh process, got same pid %d", h1.PID)
	}
	if h2.Port != h1.Port {
		t.Fatalf("expected freed port %d reused, got %d", h1.Port, h2.Port)
	}
	if s.dev.Len() != 1 {
		t.Fatalf("expected one registry entry, got %d", s.dev.Len())
	}
	if s.ports.InUse() != 1 {
		t.Fatalf("expected one port in use, got %d", s.ports.InUse())
	}

	s.StopDevServer("app")
	waitDevRemoved(t, s, "app")
}

func TestDevServerEnvAndOutputTail(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3000, 10*time.Second, []testApp{
		{name: "app", dev: "echo port=$PORT opts=$NODE_OPTIONS; sleep 60"},
	})

	if err := s.Inspector().Open(); err != nil {
		t.Fatalf("Inspector.Open returned error: %v", err)
	}

	h, err := s.EnsureDevServer(context.Background(), "app")
	if err != nil {
		t.Fatalf("EnsureDevServer returned error: %v", err)
	}
	reap(t, h.PID)

	waitOutputLine(t, s, "app", "port=3000")
	waitOutputLine(t, s, "app", "opts=--inspect")

	s.StopDevServer("app")
	waitDevRemoved(t, s, "app")
}

func TestListDevServersSpawnOrder(t *testing.T) {
	t.Parallel()
	s := newTestSupervisor(t, 3000, 3002, 10*time.Second, []testApp{
		{name: "a", dev: "sleep 60"},
		{name: "b", dev: "sleep 60"},
	})

	hb, err := s.EnsureDevServer(context.Background(), "b")
	if err != nil {
		t.Fatalf("EnsureDevServer(b) returned error: %v", err)
	}
	reap(t, hb.PID)
	ha, err := s.EnsureDevServer(context.Background(), "a")
	if err != nil {
		t.Fatalf("EnsureDevServer(a) returned error: %v", err)
	}
	reap(t, ha.PID)

	list := s.ListDevServers()
	if len(list) != 2 || list[0].App != "b" || list[1].App != "a" {
		t.Fatalf("expected spawn order [b a], got %+v", list)
	}
	if list[0].Color == "" || list[1].Color == "" || list[0].Color == list[1].Color {
		t.Fatalf("expected distinct colors, got %q and %q", list[0].Color, list[1].Color)
	}

	for _, app := range []string{"a", "b"} {
		s.StopDevServer(app)
		waitDevRemoved(t, s, app)
	}
}

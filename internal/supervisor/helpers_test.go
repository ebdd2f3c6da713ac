package supervisor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"devdeck/internal/catalog"
	"devdeck/internal/ports"
)

type testApp struct {
	name string
	dev  string
	test string
	dir  string // defaults to the manifest directory
}

// newTestSupervisor builds a supervisor over a throwaway workshop manifest.
// Commands run in the manifest's temp directory unless an app overrides dir.
func newTestSupervisor(t *testing.T, portMin, portMax int, grace time.Duration, apps []testApp) *Supervisor {
	t.Helper()

	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("apps:\n")
	for _, a := range apps {
		fmt.Fprintf(&b, "  - name: %s\n", a.name)
		path := a.dir
		if path == "" {
			path = "."
		}
		fmt.Fprintf(&b, "    path: %q\n", path)
		if a.dev != "" {
			fmt.Fprintf(&b, "    dev_command: %q\n", a.dev)
		}
		if a.test != "" {
			fmt.Fprintf(&b, "    test_command: %q\n", a.test)
		}
	}
	manifest := filepath.Join(dir, "workshop.yaml")
	if err := os.WriteFile(manifest, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cat, err := catalog.Load(manifest, log.New(io.Discard))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	alloc, err := ports.New(portMin, portMax)
	if err != nil {
		t.Fatalf("new allocator: %v", err)
	}
	return New(Options{
		Catalog:    cat,
		Ports:      alloc,
		ReadyGrace: grace,
		Logger:     log.New(io.Discard),
	})
}

// reap makes sure a spawned process group is gone when the test ends, even
// on failure paths that never stop it cleanly.
func reap(t *testing.T, pid int) {
	t.Helper()
	t.Cleanup(func() {
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	})
}

// waitEvent consumes the supervisor stream until match succeeds.
func waitEvent(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func exited(class Class, app string) func(Event) bool {
	return func(ev Event) bool {
		return ev.Class == class && ev.App == app && ev.Type == EventExited
	}
}

// waitDevRemoved polls until the dev handle for app is gone.
func waitDevRemoved(t *testing.T, s *Supervisor, app string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := s.dev.Get(app); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("dev handle never removed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// waitOutputLine polls the dev output tail until a line contains want.
func waitOutputLine(t *testing.T, s *Supervisor, app, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if lines, ok := s.DevServerOutput(app); ok {
			for _, l := range lines {
				if strings.Contains(l, want) {
					return
				}
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("output never contained %q", want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

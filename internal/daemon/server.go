package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"devdeck/internal/catalog"
	"devdeck/internal/config"
	"devdeck/internal/ports"
	"devdeck/internal/supervisor"
)

// Server wraps the UNIX listener and the process supervisor behind it.
type Server struct {
	ln      net.Listener
	path    string
	http    *http.Server
	sup     *supervisor.Supervisor
	cat     *catalog.Catalog
	ports   *ports.Allocator
	cfg     config.Config
	log     *log.Logger
	started time.Time
	quit    chan struct{}

	cancelWatch context.CancelFunc
}

// Close stops the server and unlinks the socket. Managed children are left
// running; only the supervisor state dies with the daemon.
func (s *Server) Close() error {
	if s.cancelWatch != nil {
		s.cancelWatch()
	}
	close(s.quit)
	if s.http != nil {
		if err := s.http.Close(); err != nil {
			return err
		}
	}
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return RemovePID()
}

// StartDaemon loads the workshop catalog, binds the UNIX socket and serves
// the control API until Close.
func StartDaemon(cfg config.Config) (*Server, error) {
	logger := NewLogger(cfg.LogLevel)

	cat, err := catalog.Load(cfg.WorkshopFile, logger)
	if err != nil {
		return nil, fmt.Errorf("load workshop catalog: %w", err)
	}
	alloc, err := ports.New(cfg.PortMin, cfg.PortMax)
	if err != nil {
		return nil, err
	}
	sup := supervisor.New(supervisor.Options{
		Catalog:    cat,
		Ports:      alloc,
		ReadyGrace: cfg.ReadyGrace,
		Logger:     logger,
	})

	if err := EnsureRuntimeDir(); err != nil {
		return nil, err
	}
	path := SocketPath()

	// If stale socket file exists but daemon is not running, remove it
	if _, err := os.Stat(path); err == nil && !IsRunning() {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, err
	}

	s := &Server{
		ln:      ln,
		path:    path,
		sup:     sup,
		cat:     cat,
		ports:   alloc,
		cfg:     cfg,
		log:     logger.With("component", "daemon"),
		started: time.Now().UTC(),
		quit:    make(chan struct{}),
	}
	s.http = &http.Server{Handler: s.routes()}

	if err := WritePID(os.Getpid()); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.WatchManifest {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancelWatch = cancel
		go func() {
			if err := cat.Watch(ctx); err != nil {
				s.log.Warn("manifest watcher stopped", "err", err)
			}
		}()
	}
	go s.logEvents()
	go s.serve()

	s.log.Info("daemon listening", "socket", path, "manifest", cat.Path(),
		"apps", cat.Len(), "port_min", cfg.PortMin, "port_max", cfg.PortMax)
	return s, nil
}

func (s *Server) serve() {
	if err := s.http.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("serve", "err", err)
	}
}

// logEvents mirrors supervisor lifecycle events into the daemon log.
func (s *Server) logEvents() {
	for {
		select {
		case ev := <-s.sup.Events():
			if ev.Type == supervisor.EventExited && ev.ExitCode != nil {
				s.log.Info(string(ev.Type), "class", ev.Class, "app", ev.App,
					"status", ev.Status, "exit_code", *ev.ExitCode)
				continue
			}
			s.log.Info(string(ev.Type), "class", ev.Class, "app", ev.App,
				"pid", ev.PID, "status", ev.Status)
		case <-s.quit:
			return
		}
	}
}

// StopRunningDaemon sends a termination signal to the currently running daemon if any.
func StopRunningDaemon(force bool) error {
	pid, err := RunningPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if IsRunning() {
				return fmt.Errorf("daemon is running but PID file %q is missing; stop it manually", PIDPath())
			}
			return nil
		}
		return fmt.Errorf("unable to read daemon PID: %w", err)
	}
	if pid == os.Getpid() {
		return errors.New("refusing to stop current process")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := sendSignal(proc, syscall.SIGTERM); err != nil {
		return err
	}
	if waitForShutdown(3 * time.Second) {
		return nil
	}
	if !force {
		return fmt.Errorf("daemon process %d did not exit after SIGTERM", pid)
	}
	if err := sendSignal(proc, syscall.SIGKILL); err != nil {
		return err
	}
	if waitForShutdown(2 * time.Second) {
		return nil
	}
	return fmt.Errorf("daemon process %d did not exit after SIGKILL", pid)
}

func sendSignal(proc *os.Process, sig syscall.Signal) error {
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = RemovePID()
			return nil
		}
		return err
	}
	return nil
}

func waitForShutdown(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsRunning() {
			_ = RemovePID()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

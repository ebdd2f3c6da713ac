package supervisor

import (
	"errors"
	"io"
	"os/exec"
	"syscall"

	"devdeck/internal/registry"
)

// child is the runtime side of one spawned process. The public handle lives
// in a registry; this carries what the exit watcher needs.
type child struct {
	cmd    *exec.Cmd
	pid    int
	stdout io.ReadCloser
	out    *tail
	done   chan struct{} // closed after exit cleanup completes
}

// start launches command through the shell in dir. The child becomes its own
// process group leader so signals reach grandchildren too. Stderr shares the
// stdout pipe; the watcher sees one merged stream.
func start(command, dir string, env []string) (*child, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &child{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		stdout: stdout,
		out:    newTail(defaultTailLines),
		done:   make(chan struct{}),
	}, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func classify(stopRequested bool, code int) registry.Status {
	if stopRequested || code == 0 {
		return registry.StatusStopped
	}
	return registry.StatusCrashed
}

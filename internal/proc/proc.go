// Package proc starts and controls the supervised child command.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrWaitTimeout is returned by Wait when the child has not been reaped
// within the allowed time.
var ErrWaitTimeout = errors.New("timed out waiting for child exit")

// Child is a single supervised child process. The command line is run
// through the platform interpreter (cmd.exe /C on Windows, /bin/sh -c
// elsewhere) so batch and shell scripts work unmodified.
type Child struct {
	cmd  *exec.Cmd
	done chan error

	mu       sync.Mutex
	stopped  bool // Kill already issued
	exited   bool
	exitCode int

	tree processTree
}

// Start launches script through the platform interpreter. name scopes the
// platform process-tree bookkeeping (the Windows job object); dir, if
// non-empty, becomes the child's working directory.
func Start(name, script, dir string) (*Child, error) {
	if script == "" {
		return nil, errors.New("script path is required")
	}

	cmd := interpreterCommand(script)
	cmd.Dir = dir
	// The child writes wherever the service's own streams point.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	c := &Child{
		cmd:      cmd,
		done:     make(chan error, 1),
		exitCode: -1,
	}

	tree, err := startProcess(name, cmd)
	if err != nil {
		return nil, fmt.Errorf("starting %q: %w", script, err)
	}
	c.tree = tree

	// Waiter: the buffered channel keeps this goroutine from leaking
	// even if the status is never consumed.
	go func() {
		c.done <- cmd.Wait()
	}()

	return c, nil
}

// PID returns the child's process ID.
func (c *Child) PID() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Exited reports whether the child has exited, without blocking. Once it
// returns true the exit code is available through ExitCode.
func (c *Child) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return true
	}
	select {
	case err := <-c.done:
		c.recordExit(err)
		return true
	default:
		return false
	}
}

// ExitCode returns the child's exit code. It is -1 until the child has
// been reaped, and -1 when the exit status was discarded by the platform.
func (c *Child) ExitCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitCode
}

// Kill tears down the child and its process tree. It is idempotent and a
// no-op for a child that already exited. The caller still needs Wait to
// reap the exit status.
func (c *Child) Kill() error {
	c.mu.Lock()
	if c.stopped || c.exited {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	if err := c.tree.kill(c.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing child pid %d: %w", c.PID(), err)
	}
	return nil
}

// Wait blocks until the child is reaped or timeout elapses. A nil return
// means the exit status has been recorded.
func (c *Child) Wait(timeout time.Duration) error {
	c.mu.Lock()
	if c.exited {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	select {
	case err := <-c.done:
		c.mu.Lock()
		c.recordExit(err)
		c.mu.Unlock()
		return nil
	case <-time.After(timeout):
		// A concurrent Exited call may have consumed the status.
		c.mu.Lock()
		exited := c.exited
		c.mu.Unlock()
		if exited {
			return nil
		}
		return ErrWaitTimeout
	}
}

// recordExit stores the exit status and releases platform resources.
// Callers hold c.mu.
func (c *Child) recordExit(err error) {
	c.exited = true
	c.exitCode = exitCodeFromError(err)
	c.tree.release()
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// interpreterCommand builds the platform interpreter invocation: scripts
// run through the shell.
func interpreterCommand(script string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", script)
}

// processTree kills via the process group; the child is started with
// Setpgid so the group ID matches its PID.
type processTree struct{}

func startProcess(_ string, cmd *exec.Cmd) (processTree, error) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	if err := cmd.Start(); err != nil {
		return processTree{}, err
	}
	return processTree{}, nil
}

func (t processTree) kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	// Negative PID addresses the whole process group.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

func (t processTree) release() {}

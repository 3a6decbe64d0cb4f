//go:build windows

package proc

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	winjob "github.com/kolesnikovae/go-winjob"
)

// interpreterCommand builds the platform interpreter invocation: batch
// scripts run through cmd.exe.
func interpreterCommand(script string) *exec.Cmd {
	cmd := exec.Command("cmd.exe", "/C", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow: true,
	}
	return cmd
}

// processTree tracks the job object the child runs in. Closing the job
// handle kills every process still in it (KillOnJobClose), so a kill and
// a post-exit cleanup are the same operation.
type processTree struct {
	job  *winjob.JobObject
	once *sync.Once
}

func startProcess(name string, cmd *exec.Cmd) (processTree, error) {
	job, err := winjob.Create("svcrunner-"+name,
		winjob.WithKillOnJobClose(),
		winjob.WithBreakawayOK(),
	)
	if err != nil {
		return processTree{}, fmt.Errorf("create job object: %w", err)
	}

	if err := winjob.StartInJobObject(cmd, job); err != nil {
		_ = job.Close()
		return processTree{}, fmt.Errorf("start in job: %w", err)
	}

	return processTree{job: job, once: new(sync.Once)}, nil
}

func (t processTree) kill(cmd *exec.Cmd) error {
	if t.job == nil {
		if cmd.Process != nil {
			return cmd.Process.Kill()
		}
		return nil
	}

	var err error
	t.once.Do(func() { err = t.job.Close() })
	if err != nil {
		// Fall back to killing the direct child only.
		if cmd.Process != nil {
			return cmd.Process.Kill()
		}
		return err
	}
	return nil
}

func (t processTree) release() {
	if t.job == nil {
		return
	}
	t.once.Do(func() { _ = t.job.Close() })
}

//go:build windows
// +build windows

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"

	"svcrunner/internal/logger"
	"svcrunner/internal/supervisor"
)

// Service-specific exit codes surfaced to the service control manager
// when the run loop fails.
const (
	exitCodeSpawnFailed uint32 = 1
	exitCodeRunFailed   uint32 = 2
)

// IsService reports whether the process was started by the service
// control manager. Callers use it to suppress console output before the
// logger is initialized.
func IsService() bool {
	isService, err := svc.IsWindowsService()
	return err == nil && isService
}

// Run hosts the supervisor. When the process was started by the service
// control manager it attaches the control handler bridge under name;
// started from a console it falls back to the interactive signal
// bridge.
func Run(name string, sup *supervisor.Supervisor) error {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return fmt.Errorf("detecting service context: %w", err)
	}
	if !isService {
		return RunInteractive(sup)
	}

	// svc.Run registers the control handler and blocks until the
	// handler returns. A registration failure here means no status
	// was ever reported.
	if err := svc.Run(name, &handler{sup: sup}); err != nil {
		return fmt.Errorf("running service %s: %w", name, err)
	}
	return nil
}

// handler bridges service control manager dispatch to the supervisor.
type handler struct {
	sup *supervisor.Supervisor
}

// scmReporter posts supervisor status reports onto the service status
// channel owned by svc.Run.
type scmReporter struct {
	changes chan<- svc.Status
}

func (r *scmReporter) Report(st supervisor.Status) error {
	r.changes <- toSvcStatus(st)
	return nil
}

func toSvcStatus(st supervisor.Status) svc.Status {
	out := svc.Status{
		State:      toSvcState(st.State),
		CheckPoint: st.CheckPoint,
		WaitHint:   uint32(st.WaitHint / time.Millisecond),
		ProcessId:  uint32(st.PID),
	}
	if st.Accepts&supervisor.AcceptStop != 0 {
		out.Accepts |= svc.AcceptStop | svc.AcceptShutdown
	}
	if st.Accepts&supervisor.AcceptPauseContinue != 0 {
		out.Accepts |= svc.AcceptPauseAndContinue
	}
	return out
}

func toSvcState(s supervisor.State) svc.State {
	switch s {
	case supervisor.StateStartPending:
		return svc.StartPending
	case supervisor.StateRunning:
		return svc.Running
	case supervisor.StateStopPending:
		return svc.StopPending
	default:
		return svc.Stopped
	}
}

// Execute implements svc.Handler. It runs the supervisor in a goroutine
// and forwards control requests onto the bridge channel; the supervisor
// owns every status transition except the Interrogate echo.
func (h *handler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (svcSpecificEC bool, exitCode uint32) {
	log := logger.WithComponent("windows-service")

	ctrl := make(chan supervisor.ControlEvent, controlBufferSize)
	rep := &scmReporter{changes: changes}

	done := make(chan error, 1)
	go func() {
		done <- h.sup.Run(context.Background(), ctrl, rep)
	}()

	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
				// Respond twice as per documentation
				time.Sleep(100 * time.Millisecond)
				changes <- c.CurrentStatus

			case svc.Stop, svc.Shutdown:
				log.Info().Msg("Received stop request from service control manager")
				ctrl <- supervisor.ControlStop

			case svc.Pause:
				ctrl <- supervisor.ControlPause

			case svc.Continue:
				ctrl <- supervisor.ControlContinue

			default:
				log.Warn().Int("cmd", int(c.Cmd)).Msg("Unexpected service control command")
			}

		case err := <-done:
			if err != nil {
				log.Error().Err(err).Msg("Service run loop exited with error")
				if errors.Is(err, supervisor.ErrSpawn) {
					return true, exitCodeSpawnFailed
				}
				return true, exitCodeRunFailed
			}
			return false, 0
		}
	}
}

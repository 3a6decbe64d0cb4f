// Package supervisor implements the service run loop: it spawns the one
// managed child command, reports lifecycle transitions to the service
// control manager, and reconciles asynchronous control events with the
// child's own exit.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"svcrunner/internal/config"
	"svcrunner/internal/events"
	"svcrunner/internal/logger"
	"svcrunner/internal/procstat"
)

var (
	// ErrSpawn marks a run that ended because the child command could
	// not be launched.
	ErrSpawn = errors.New("child spawn failed")
	// ErrReport marks a run that ended because a status report failed.
	ErrReport = errors.New("status report failed")
)

const (
	causeStopRequested = "stop requested"
	causeChildExited   = "child exited"
)

// Child is the handle to the one spawned command of a service run.
// Kill must be idempotent: killing an already-exited child is a no-op.
type Child interface {
	PID() int
	Exited() bool
	ExitCode() int
	Kill() error
	Wait(timeout time.Duration) error
}

// SpawnFunc launches the managed command.
type SpawnFunc func() (Child, error)

// Supervisor owns one service run from StartPending to Stopped.
type Supervisor struct {
	cfg     config.ServiceConfig
	spawn   SpawnFunc
	emitter *events.Emitter

	clk    clock.Clock
	sample func(ctx context.Context, pid int) (*procstat.Sample, error)
}

// New creates a supervisor for one run. Zero durations in cfg fall back
// to the defaults from config.DefaultConfig.
func New(cfg config.ServiceConfig, spawn SpawnFunc, emitter *events.Emitter) *Supervisor {
	def := config.DefaultConfig().Service
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.StopWait <= 0 {
		cfg.StopWait = def.StopWait
	}
	if cfg.StartWaitHint <= 0 {
		cfg.StartWaitHint = def.StartWaitHint
	}
	if cfg.StopWaitHint <= 0 {
		cfg.StopWaitHint = def.StopWaitHint
	}

	return &Supervisor{
		cfg:     cfg,
		spawn:   spawn,
		emitter: emitter,
		clk:     clock.New(),
		sample:  procstat.Collect,
	}
}

// Run drives one service run. The control channel is fed by the
// platform bridge; rep receives every status transition. Run reports
// the terminal Stopped status exactly once, on every return path, so
// the manager is never left believing the service is still starting.
// Cancelling ctx is treated as a stop request.
func (s *Supervisor) Run(ctx context.Context, ctrl <-chan ControlEvent, rep StatusReporter) error {
	log := logger.WithComponent("supervisor")

	if err := rep.Report(Status{State: StateStartPending, CheckPoint: 1, WaitHint: s.cfg.StartWaitHint}); err != nil {
		s.reportStopped(rep)
		return fmt.Errorf("%w: start pending: %v", ErrReport, err)
	}
	s.emitter.Emit(ctx, events.Event{Kind: events.KindStarting})
	log.Info().
		Str("name", s.cfg.Name).
		Str("command", s.cfg.BatPath).
		Msg("Spawning child")

	child, err := s.spawn()
	if err != nil {
		log.Error().Err(err).Str("command", s.cfg.BatPath).Msg("Failed to spawn child")
		s.emitter.Emit(ctx, events.Event{Kind: events.KindSpawnFailed, Cause: err.Error()})
		s.reportStopped(rep)
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := rep.Report(Status{State: StateRunning, Accepts: AcceptStop | AcceptPauseContinue, PID: child.PID()}); err != nil {
		s.stopChild(child)
		s.reportStopped(rep)
		return fmt.Errorf("%w: running: %v", ErrReport, err)
	}
	log.Info().Int("pid", child.PID()).Msg("Child running")
	s.emitter.Emit(ctx, events.Event{Kind: events.KindRunning, PID: child.PID()})

	stopRequested := s.reconcile(ctx, ctrl, child)

	cause := causeChildExited
	if stopRequested {
		cause = causeStopRequested
	} else {
		s.emitChildExited(ctx, child)
	}

	if err := rep.Report(Status{State: StateStopPending, CheckPoint: 1, WaitHint: s.cfg.StopWaitHint}); err != nil {
		s.stopChild(child)
		s.reportStopped(rep)
		return fmt.Errorf("%w: stop pending: %v", ErrReport, err)
	}
	s.emitter.Emit(ctx, events.Event{Kind: events.KindStopping, PID: child.PID(), Cause: cause})

	if stopRequested {
		s.stopChild(child)
	}

	stopped := events.Event{Kind: events.KindStopped, PID: child.PID(), Cause: cause}
	if code := child.ExitCode(); code >= 0 {
		stopped.ExitCode = &code
	}
	s.emitter.Emit(ctx, stopped)

	if err := rep.Report(Status{State: StateStopped}); err != nil {
		return fmt.Errorf("%w: stopped: %v", ErrReport, err)
	}

	log.Info().
		Str("cause", cause).
		Int("exit_code", child.ExitCode()).
		Msg("Run complete")
	return nil
}

// reconcile polls the control channel and the child until a stop is
// requested or the child exits on its own. The stop check precedes the
// exit check, so when both are pending in the same iteration the stop
// path wins and the recorded cause is deterministic.
func (s *Supervisor) reconcile(ctx context.Context, ctrl <-chan ControlEvent, child Child) bool {
	log := logger.WithComponent("supervisor")
	lastBeat := s.clk.Now()

	for {
		stop := ctx.Err() != nil

	drain:
		for {
			select {
			case ev, ok := <-ctrl:
				if !ok {
					// Closed channel means the bridge is gone;
					// no further controls can arrive.
					ctrl = nil
					break drain
				}
				switch ev {
				case ControlStop:
					log.Info().Msg("Stop requested")
					stop = true
				case ControlPause:
					log.Info().Msg("Pause requested, acknowledged; child commands cannot be suspended")
					s.emitter.Emit(ctx, events.Event{Kind: events.KindPauseAck, PID: child.PID()})
				case ControlContinue:
					log.Info().Msg("Continue requested, acknowledged")
					s.emitter.Emit(ctx, events.Event{Kind: events.KindContinueAck, PID: child.PID()})
				default:
					log.Warn().Stringer("control", ev).Msg("Unexpected control event")
				}
			default:
				break drain
			}
		}

		if stop {
			return true
		}
		if child.Exited() {
			log.Info().
				Int("pid", child.PID()).
				Int("exit_code", child.ExitCode()).
				Msg("Child exited")
			return false
		}

		if s.clk.Since(lastBeat) >= s.cfg.HeartbeatInterval {
			s.heartbeat(ctx, child)
			lastBeat = s.clk.Now()
		}

		t := s.clk.Timer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
}

// heartbeat logs a liveness line with a child resource snapshot and
// publishes it as an event.
func (s *Supervisor) heartbeat(ctx context.Context, child Child) {
	log := logger.WithComponent("supervisor")

	ev := events.Event{Kind: events.KindHeartbeat, PID: child.PID()}
	stats, err := s.sample(ctx, child.PID())
	if err != nil {
		log.Debug().Err(err).Int("pid", child.PID()).Msg("Child stat sample failed")
	} else {
		ev.Stats = stats
		log.Debug().
			Int("pid", child.PID()).
			Float64("cpu_percent", stats.CPUPercent).
			Uint64("rss", stats.RSS).
			Msg("Child alive")
	}
	s.emitter.Emit(ctx, ev)
}

// stopChild kills the child and waits a bounded time for it to be
// reaped. Kill failures are logged, never fatal: an imperfect teardown
// beats leaving the manager in a pending state forever.
func (s *Supervisor) stopChild(child Child) {
	log := logger.WithComponent("supervisor")

	if err := child.Kill(); err != nil {
		log.Error().Err(err).Int("pid", child.PID()).Msg("Failed to kill child")
	}
	if err := child.Wait(s.cfg.StopWait); err != nil {
		log.Warn().Err(err).Int("pid", child.PID()).Msg("Child not reaped within stop wait")
	}
}

func (s *Supervisor) emitChildExited(ctx context.Context, child Child) {
	ev := events.Event{Kind: events.KindChildExited, PID: child.PID()}
	if code := child.ExitCode(); code >= 0 {
		ev.ExitCode = &code
	}
	s.emitter.Emit(ctx, ev)
}

// reportStopped sends the terminal report on an already-failing path.
// The original error propagates; a reporting failure here is only
// logged.
func (s *Supervisor) reportStopped(rep StatusReporter) {
	if err := rep.Report(Status{State: StateStopped}); err != nil {
		log := logger.WithComponent("supervisor")
		log.Error().Err(err).Msg("Failed to report stopped state")
	}
}

// Package service hosts the supervisor run loop on the current
// platform: under the Windows service control manager when started by
// it, or on a console driven by interrupt signals otherwise.
package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"svcrunner/internal/logger"
	"svcrunner/internal/supervisor"
)

// controlBufferSize bounds the bridge channel. Control requests are
// rare and single-producer; the buffer only absorbs bursts between
// polls so the dispatcher never blocks on a healthy run loop.
const controlBufferSize = 16

// signalNotify is swapped in tests.
var signalNotify = signal.Notify

// logReporter surfaces status transitions in the log when there is no
// service control manager to report to.
type logReporter struct{}

func (logReporter) Report(st supervisor.Status) error {
	log := logger.WithComponent("service")
	log.Info().
		Stringer("state", st.State).
		Int("pid", st.PID).
		Msg("Status transition")
	return nil
}

// RunInteractive hosts the supervisor on a console. SIGINT and SIGTERM
// are translated into stop requests on the same control channel the
// service control manager bridge would use.
func RunInteractive(sup *supervisor.Supervisor) error {
	log := logger.WithComponent("service")

	ctrl := make(chan supervisor.ControlEvent, controlBufferSize)

	sigs := make(chan os.Signal, 1)
	signalNotify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(context.Background(), ctrl, logReporter{})
	}()

	log.Info().Msg("Running interactively, press Ctrl+C to stop")

	for {
		select {
		case err := <-done:
			return err
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			ctrl <- supervisor.ControlStop
		}
	}
}

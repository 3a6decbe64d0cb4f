// Package events publishes service lifecycle events to a configurable sink.
package events

import (
	"context"
	"time"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
	"svcrunner/internal/procstat"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	KindStarting    Kind = "starting"
	KindRunning     Kind = "running"
	KindPauseAck    Kind = "pause_acknowledged"
	KindContinueAck Kind = "continue_acknowledged"
	KindStopping    Kind = "stopping"
	KindStopped     Kind = "stopped"
	KindChildExited Kind = "child_exited"
	KindSpawnFailed Kind = "spawn_failed"
	KindHeartbeat   Kind = "heartbeat"
)

// Event is a single lifecycle event of the supervised service.
type Event struct {
	Time     time.Time `json:"time"`
	RunID    string    `json:"run_id"`
	Service  string    `json:"service"`
	Hostname string    `json:"hostname"`
	Kind     Kind      `json:"kind"`
	PID      int       `json:"pid,omitempty"`
	ExitCode *int      `json:"exit_code,omitempty"`
	Cause    string    `json:"cause,omitempty"`

	// Stats carries a child resource snapshot on heartbeat events.
	Stats *procstat.Sample `json:"stats,omitempty"`
}

// Sink delivers events to a destination.
type Sink interface {
	// Send transmits one event to the destination.
	Send(ctx context.Context, ev Event) error

	// Close releases any resources held by the sink.
	Close() error
}

// Emitter stamps events with run identity before handing them to a sink.
// Delivery is best-effort: sink failures are logged, never propagated, so
// event publishing cannot affect service control.
type Emitter struct {
	sink     Sink
	runID    string
	service  string
	hostname string
}

// NewEmitter wraps sink with the identity of the current service run.
// A nil sink yields an emitter that discards everything.
func NewEmitter(sink Sink, runID, service string) *Emitter {
	return &Emitter{
		sink:     sink,
		runID:    runID,
		service:  service,
		hostname: config.Hostname(),
	}
}

// Emit stamps and sends the event. Safe on a nil emitter.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil || e.sink == nil {
		return
	}

	ev.Time = time.Now().UTC()
	ev.RunID = e.runID
	ev.Service = e.service
	ev.Hostname = e.hostname

	if err := e.sink.Send(ctx, ev); err != nil {
		log := logger.WithComponent("events")
		log.Warn().
			Err(err).
			Str("kind", string(ev.Kind)).
			Msg("Failed to publish event")
	}
}

// Close releases the underlying sink. Safe on a nil emitter.
func (e *Emitter) Close() error {
	if e == nil || e.sink == nil {
		return nil
	}
	return e.sink.Close()
}

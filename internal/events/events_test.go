package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

// captureSink records every event it receives.
type captureSink struct {
	events []Event
	err    error
	closed bool
}

func (c *captureSink) Send(_ context.Context, ev Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func TestEmitter_StampsIdentity(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink, "run-123", "payroll-export")

	before := time.Now().UTC()
	em.Emit(context.Background(), Event{Kind: KindRunning, PID: 42})

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.RunID != "run-123" {
		t.Errorf("expected RunID='run-123', got %q", ev.RunID)
	}
	if ev.Service != "payroll-export" {
		t.Errorf("expected Service='payroll-export', got %q", ev.Service)
	}
	if ev.Hostname == "" {
		t.Error("expected Hostname to be stamped")
	}
	if ev.Kind != KindRunning {
		t.Errorf("expected Kind=running, got %q", ev.Kind)
	}
	if ev.PID != 42 {
		t.Errorf("expected PID=42, got %d", ev.PID)
	}
	if ev.Time.Before(before) {
		t.Errorf("expected Time >= %v, got %v", before, ev.Time)
	}
}

func TestEmitter_SinkErrorDoesNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("broker unavailable")}
	em := NewEmitter(sink, "run-1", "svc")

	// Must not panic and must not propagate the sink error
	em.Emit(context.Background(), Event{Kind: KindStopped})
}

func TestEmitter_NilSafe(t *testing.T) {
	var em *Emitter
	em.Emit(context.Background(), Event{Kind: KindStarting})
	if err := em.Close(); err != nil {
		t.Errorf("expected nil error from nil emitter Close, got %v", err)
	}

	em = NewEmitter(nil, "run-1", "svc")
	em.Emit(context.Background(), Event{Kind: KindStarting})
	if err := em.Close(); err != nil {
		t.Errorf("expected nil error from sink-less emitter Close, got %v", err)
	}
}

func TestEmitter_CloseClosesSink(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink, "run-1", "svc")

	if err := em.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !sink.closed {
		t.Error("expected sink to be closed")
	}
}

func TestNopSink(t *testing.T) {
	var s NopSink
	if err := s.Send(context.Background(), Event{Kind: KindHeartbeat}); err != nil {
		t.Errorf("NopSink.Send returned %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("NopSink.Close returned %v", err)
	}
}

package service

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
	"svcrunner/internal/supervisor"
)

func init() {
	_ = logger.Init(logger.Config{Level: "disabled"})
}

// stubChild implements supervisor.Child for interactive-mode tests.
type stubChild struct {
	mu     sync.Mutex
	exited bool
	kills  int
}

func (c *stubChild) PID() int { return 4242 }

func (c *stubChild) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

func (c *stubChild) ExitCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return 0
	}
	return -1
}

func (c *stubChild) Kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kills++
	c.exited = true
	return nil
}

func (c *stubChild) Wait(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exited = true
	return nil
}

func (c *stubChild) setExited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exited = true
}

func (c *stubChild) killCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kills
}

func fastConfig() config.ServiceConfig {
	return config.ServiceConfig{
		Name:         "testsvc",
		BatPath:      "job.bat",
		PollInterval: 5 * time.Millisecond,
		StopWait:     100 * time.Millisecond,
	}
}

func TestRunInteractive_SignalStops(t *testing.T) {
	captured := make(chan chan<- os.Signal, 1)
	signalNotify = func(c chan<- os.Signal, _ ...os.Signal) {
		captured <- c
	}
	defer func() { signalNotify = signal.Notify }()

	child := &stubChild{}
	sup := supervisor.New(fastConfig(), func() (supervisor.Child, error) { return child, nil }, nil)

	done := make(chan error, 1)
	go func() { done <- RunInteractive(sup) }()

	sigCh := <-captured
	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("interactive run did not stop on SIGTERM")
	}

	if child.killCount() == 0 {
		t.Error("expected child killed after SIGTERM")
	}
}

func TestRunInteractive_ChildExitEndsRun(t *testing.T) {
	signalNotify = func(chan<- os.Signal, ...os.Signal) {}
	defer func() { signalNotify = signal.Notify }()

	child := &stubChild{}
	sup := supervisor.New(fastConfig(), func() (supervisor.Child, error) { return child, nil }, nil)

	done := make(chan error, 1)
	go func() { done <- RunInteractive(sup) }()

	time.AfterFunc(10*time.Millisecond, child.setExited)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("interactive run did not end on child exit")
	}

	if n := child.killCount(); n != 0 {
		t.Errorf("expected no kill on natural exit, got %d", n)
	}
}

//go:build windows

package svcmgr

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	controlTimeout      = 30 * time.Second
	controlPollInterval = 300 * time.Millisecond
)

// Win32_Service mirrors the WMI class of the same name. Field names must
// match the WMI property names for query mapping.
type Win32_Service struct {
	Name      string
	State     string
	StartMode string
	PathName  string
}

// Install registers the service with the service control manager. The
// registration points at the current executable and persists the identity
// flags as launch arguments.
func Install(cfg Config) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service control manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(cfg.Name)
	if err == nil {
		s.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyExists, cfg.Name)
	}

	display := cfg.DisplayName
	if display == "" {
		display = cfg.Name
	}
	s, err = m.CreateService(cfg.Name, exe, mgr.Config{
		DisplayName:  display,
		Description:  cfg.Description,
		StartType:    mgr.StartAutomatic,
		ErrorControl: mgr.ErrorNormal,
	}, launchArgs(cfg)...)
	if err != nil {
		return fmt.Errorf("creating service %s: %w", cfg.Name, err)
	}
	defer s.Close()

	// Registering the event log source is idempotent; ignore "already exists".
	_ = eventlog.InstallAsEventCreate(cfg.Name, eventlog.Error|eventlog.Warning|eventlog.Info)

	return nil
}

// Uninstall deletes the service registration and its event log source.
func Uninstall(name string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service control manager: %w", err)
	}
	defer m.Disconnect()

	s, err := openService(m, name)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(); err != nil {
		return fmt.Errorf("deleting service %s: %w", name, err)
	}

	_ = eventlog.Remove(name)

	return nil
}

// Start asks the service control manager to start the service. The manager
// launches the executable with the persisted arguments.
func Start(name string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service control manager: %w", err)
	}
	defer m.Disconnect()

	s, err := openService(m, name)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service %s: %w", name, err)
	}
	return nil
}

// Stop sends the stop control and waits for the service to reach the
// stopped state.
func Stop(name string) error {
	return control(name, svc.Stop, svc.Stopped)
}

// Status reports the current state of the service. The state and PID come
// from the service control manager; start mode and image path come from the
// Win32_Service WMI row when available.
func Status(name string) (Info, error) {
	m, err := mgr.Connect()
	if err != nil {
		return Info{}, fmt.Errorf("connecting to service control manager: %w", err)
	}
	defer m.Disconnect()

	s, err := openService(m, name)
	if err != nil {
		return Info{}, err
	}
	defer s.Close()

	st, err := s.Query()
	if err != nil {
		return Info{}, fmt.Errorf("querying service %s: %w", name, err)
	}

	info := Info{
		Name:  name,
		State: stateName(st.State),
		PID:   st.ProcessId,
	}

	// The SCM query does not expose start mode or the image path.
	var rows []Win32_Service
	q := wmi.CreateQuery(&rows, fmt.Sprintf("WHERE Name = '%s'", name))
	if err := wmi.Query(q, &rows); err == nil && len(rows) > 0 {
		info.StartMode = rows[0].StartMode
		info.Path = rows[0].PathName
	}

	return info, nil
}

// control sends a control command and polls until the service reaches the
// target state or the timeout elapses.
func control(name string, c svc.Cmd, to svc.State) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to service control manager: %w", err)
	}
	defer m.Disconnect()

	s, err := openService(m, name)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Control(c)
	if err != nil {
		return fmt.Errorf("sending control %d to service %s: %w", c, name, err)
	}

	deadline := time.Now().Add(controlTimeout)
	for st.State != to {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for service %s to reach state %d", name, to)
		}
		time.Sleep(controlPollInterval)
		st, err = s.Query()
		if err != nil {
			return fmt.Errorf("querying service %s: %w", name, err)
		}
	}
	return nil
}

func openService(m *mgr.Mgr, name string) (*mgr.Service, error) {
	s, err := m.OpenService(name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("opening service %s: %w", name, err)
	}
	return s, nil
}

func stateName(s svc.State) string {
	switch s {
	case svc.Stopped:
		return "stopped"
	case svc.StartPending:
		return "start pending"
	case svc.StopPending:
		return "stop pending"
	case svc.Running:
		return "running"
	case svc.ContinuePending:
		return "continue pending"
	case svc.PausePending:
		return "pause pending"
	case svc.Paused:
		return "paused"
	default:
		return fmt.Sprintf("unknown (%d)", s)
	}
}

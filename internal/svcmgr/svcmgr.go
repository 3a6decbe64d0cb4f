// Package svcmgr registers and controls services through the Windows
// service control manager. On other platforms every operation returns
// ErrUnsupported so the CLI can surface a clean error.
package svcmgr

import "errors"

var (
	// ErrNotFound indicates the named service is not registered.
	ErrNotFound = errors.New("service not found")
	// ErrAlreadyExists indicates a service with that name is already registered.
	ErrAlreadyExists = errors.New("service already exists")
	// ErrUnsupported indicates the platform has no service control manager.
	ErrUnsupported = errors.New("service control manager not available on this platform")
)

// Config describes a service registration.
type Config struct {
	Name        string
	DisplayName string
	Description string
	BatPath     string
	ConfigPath  string
}

// Info is a point-in-time snapshot of a registered service. StartMode and
// Path come from WMI and may be empty when the query fails.
type Info struct {
	Name      string
	State     string
	PID       uint32
	StartMode string
	Path      string
}

// launchArgs builds the argument list persisted in the registration. The
// service control manager passes these back to the executable on every
// start, which is how the service rediscovers its identity.
func launchArgs(cfg Config) []string {
	args := []string{"--name", cfg.Name, "--bat", cfg.BatPath}
	if cfg.ConfigPath != "" {
		args = append(args, "--config", cfg.ConfigPath)
	}
	return args
}

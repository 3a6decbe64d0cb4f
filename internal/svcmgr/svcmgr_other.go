//go:build !windows

package svcmgr

import "fmt"

// Install is not available outside Windows.
func Install(cfg Config) error {
	return fmt.Errorf("install: %w", ErrUnsupported)
}

// Uninstall is not available outside Windows.
func Uninstall(name string) error {
	return fmt.Errorf("uninstall: %w", ErrUnsupported)
}

// Start is not available outside Windows.
func Start(name string) error {
	return fmt.Errorf("start: %w", ErrUnsupported)
}

// Stop is not available outside Windows.
func Stop(name string) error {
	return fmt.Errorf("stop: %w", ErrUnsupported)
}

// Status is not available outside Windows.
func Status(name string) (Info, error) {
	return Info{}, fmt.Errorf("status: %w", ErrUnsupported)
}

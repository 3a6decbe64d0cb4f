//go:build !windows
// +build !windows

package service

import (
	"svcrunner/internal/supervisor"
)

// IsService always reports false: only Windows has a service control
// manager.
func IsService() bool {
	return false
}

// Run hosts the supervisor. Only Windows has a service control manager;
// everywhere else the interactive signal bridge drives the same run
// loop, so stop semantics can be exercised without a Windows host.
func Run(name string, sup *supervisor.Supervisor) error {
	return RunInteractive(sup)
}

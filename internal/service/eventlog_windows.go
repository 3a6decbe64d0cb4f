//go:build windows
// +build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// ReportStartupError surfaces err in the Windows event log under the
// service's source name. Services have no console and the logger may
// not be initialized yet when startup fails; the event log is what
// "net start" and Event Viewer show the operator.
func ReportStartupError(serviceName string, err error) {
	// Registering the source is idempotent; ignore "already exists".
	_ = eventlog.InstallAsEventCreate(serviceName, eventlog.Error|eventlog.Warning|eventlog.Info)

	elog, openErr := eventlog.Open(serviceName)
	if openErr != nil {
		return
	}
	defer elog.Close()

	_ = elog.Error(1, fmt.Sprintf("Failed to start: %v", err))
}

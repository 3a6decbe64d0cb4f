//go:build !windows
// +build !windows

package service

// ReportStartupError is a no-op outside Windows; the event log does not
// exist there and startup errors already reach stderr.
func ReportStartupError(serviceName string, err error) {
}

//go:build windows
// +build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// startupEventID is the event id used for host startup failures.
const startupEventID = 1

// ReportStartupError writes err to the Windows Event Log under the service's
// name, so "sc start" and Event Viewer show why the host did not come up even
// before logging is configured.
func ReportStartupError(serviceName string, err error) {
	// Registering the source is idempotent; a failure just means it exists
	// or we lack rights, and Open below decides whether we can log.
	_ = eventlog.InstallAsEventCreate(serviceName, eventlog.Error|eventlog.Warning|eventlog.Info)

	elog, openErr := eventlog.Open(serviceName)
	if openErr != nil {
		return
	}
	defer elog.Close()

	_ = elog.Error(startupEventID, fmt.Sprintf("%s failed to start: %v", serviceName, err))
}

//go:build !windows
// +build !windows

package service

// ReportStartupError is a no-op outside Windows; the console stand-in prints
// startup errors to stderr instead.
func ReportStartupError(serviceName string, err error) {}

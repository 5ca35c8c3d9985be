//go:build windows

package handler

import "github.com/croftbyte/go-fanlog/record"

// Syslog is unavailable on Windows; construction always fails.
type Syslog struct {
	*Base
}

// NewSyslog reports that the system log is not supported on this platform.
func NewSyslog(ident string, minLevel record.Level) (*Syslog, error) {
	return nil, NewConstructionError("syslog", "system log is not supported on windows", nil)
}

// Handle never delivers on Windows.
func (h *Syslog) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	return "", false, nil
}

// Close is a no-op on Windows.
func (h *Syslog) Close() error {
	return nil
}

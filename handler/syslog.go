//go:build !windows

package handler

import (
	"io"
	"log/syslog"
	"sync"

	"github.com/croftbyte/go-fanlog/record"
)

// Syslog delivers formatted records to the system log. The connection is
// opened at construction with the supplied ident and owned by the handler.
type Syslog struct {
	*Base

	writerMu sync.Mutex
	writer   *syslog.Writer
}

var _ Streamable = (*Syslog)(nil)
var _ io.Closer = (*Syslog)(nil)

// NewSyslog opens the system log with ident as the tag. An empty ident
// falls back to "fanlog".
func NewSyslog(ident string, minLevel record.Level) (*Syslog, error) {
	if ident == "" {
		ident = "fanlog"
	}
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, ident)
	if err != nil {
		return nil, NewConstructionError("syslog", "cannot open system log", err)
	}
	return &Syslog{
		Base:   NewBase("syslog", minLevel),
		writer: w,
	}, nil
}

// Handle writes the payload at the syslog priority matching the record's
// level.
func (h *Syslog) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	h.writerMu.Lock()
	defer h.writerMu.Unlock()
	if h.writer == nil {
		return "", false, nil
	}
	if err := h.emit(level, payload); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// emit translates the record level onto the host's syslog ranks.
func (h *Syslog) emit(level record.Level, payload string) error {
	switch level {
	case record.Emergency:
		return h.writer.Emerg(payload)
	case record.Alert:
		return h.writer.Alert(payload)
	case record.Critical:
		return h.writer.Crit(payload)
	case record.Error:
		return h.writer.Err(payload)
	case record.Warning:
		return h.writer.Warning(payload)
	case record.Notice:
		return h.writer.Notice(payload)
	case record.Info:
		return h.writer.Info(payload)
	default:
		return h.writer.Debug(payload)
	}
}

// Close releases the system log connection.
func (h *Syslog) Close() error {
	h.writerMu.Lock()
	defer h.writerMu.Unlock()
	if h.writer == nil {
		return nil
	}
	err := h.writer.Close()
	h.writer = nil
	return err
}

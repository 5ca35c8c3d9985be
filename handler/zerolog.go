package handler

import (
	"github.com/rs/zerolog"

	"github.com/croftbyte/go-fanlog/record"
)

// Zerolog forwards records into a caller-supplied zerolog logger, mapping
// the eight severities onto zerolog's levels. Hosts already standardised on
// zerolog use it to route fanlog records through their existing pipeline.
type Zerolog struct {
	*Base
	zlog zerolog.Logger
}

var _ Streamable = (*Zerolog)(nil)

// NewZerolog creates the bridge over zl.
func NewZerolog(zl zerolog.Logger, minLevel record.Level) *Zerolog {
	return &Zerolog{
		Base: NewBase("zerolog", minLevel),
		zlog: zl,
	}
}

// zerologLevel maps a record level onto zerolog's scale. zerolog has no
// notice, alert, or emergency ranks: notice collapses onto info, critical
// and above onto fatal. WithLevel does not exit on fatal.
func zerologLevel(level record.Level) zerolog.Level {
	switch level {
	case record.Debug:
		return zerolog.DebugLevel
	case record.Info, record.Notice:
		return zerolog.InfoLevel
	case record.Warning:
		return zerolog.WarnLevel
	case record.Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}

// Handle emits the record through zerolog with the context and data
// attached as fields.
func (h *Zerolog) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	rec, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	event := h.zlog.WithLevel(zerologLevel(level))
	if rec.Context != "" {
		event = event.Str("context", rec.Context)
	}
	event = event.Str("severity", rec.Level.String())
	for _, f := range rec.Fields {
		event = event.Interface(f.Key, f.Value)
	}
	if len(rec.Data) > 0 {
		event = event.Interface("data", rec.Data)
	}
	event.Msg(rec.Message)
	return payload, true, nil
}

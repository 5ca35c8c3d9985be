// Package handler defines the handler contract and the stream-backed
// terminal handlers: console, error stream, file, syslog, generic writer,
// webhook, Slack, Teams, Loki, the zerolog bridge, and the null sink.
// Broker-backed sinks live in the subpackages.
package handler

import (
	"io"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/record"
)

// Handler is a sink-bound component that gates records by severity and
// writes one record to one destination.
//
// Handle returns the formatted payload and delivered=true on success. A
// record below the handler's minimum level, or one whose delivery failed in
// a way the handler swallows, returns delivered=false with a nil error. A
// non-nil error escalates to the logger's error hook; it never aborts
// delivery to other handlers.
type Handler interface {
	Handle(level record.Level, message string, callContext map[string]any) (payload string, delivered bool, err error)

	// ID returns the opaque process-unique identity assigned at
	// construction.
	ID() string

	// Kind names the handler's runtime kind ("file", "slack", ...).
	Kind() string

	Name() string
	SetName(name string)

	SetContext(context string)
	SetFormatter(f format.Formatter)
	SetMinLevel(level record.Level)
}

// Streamable is a handler whose output can be redirected to a
// caller-supplied byte sink. With a stream override in place the handler
// writes the formatted payload and a newline to the stream and reports
// success without contacting its natural destination. Decorators require
// their wrapped children to be streamable.
type Streamable interface {
	Handler
	SetStream(w io.Writer)
}

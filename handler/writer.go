package handler

import (
	"io"
	"os"

	"github.com/croftbyte/go-fanlog/record"
)

// Writer delivers formatted records to a borrowed io.Writer, one payload
// per line. The writer is never closed. It is the composition primitive
// behind the console and error-stream handlers and the usual wrapped child
// in decorator tests.
type Writer struct {
	*Base
	out io.Writer
}

var _ Streamable = (*Writer)(nil)

// NewWriter creates a writer handler over w.
func NewWriter(w io.Writer, minLevel record.Level) *Writer {
	return newWriterKind("writer", w, minLevel)
}

// NewConsole creates a handler bound to the process's standard output.
func NewConsole(minLevel record.Level) *Writer {
	return newWriterKind("console", os.Stdout, minLevel)
}

// NewErrorStream creates a handler bound to the process's standard error.
func NewErrorStream(minLevel record.Level) *Writer {
	return newWriterKind("error-stream", os.Stderr, minLevel)
}

func newWriterKind(kind string, w io.Writer, minLevel record.Level) *Writer {
	return &Writer{
		Base: NewBase(kind, minLevel),
		out:  w,
	}
}

// Handle writes the formatted payload and a newline. Write failures are
// swallowed to an undelivered result.
func (h *Writer) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}
	if _, err := io.WriteString(h.out, payload+"\n"); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

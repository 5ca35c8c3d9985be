package format

import (
	"fmt"

	"github.com/croftbyte/go-fanlog/record"
)

// Line renders a record as a single line of text with the context, level,
// interpolated message, and the JSON-encoded data map. It is the default
// formatter of every handler.
type Line struct{}

// NewLine creates the line formatter.
func NewLine() *Line {
	return &Line{}
}

// Format renders `context.level: message data`.
func (*Line) Format(rec record.Record) (string, error) {
	data, err := dataJSON(rec)
	if err != nil {
		return "", err
	}
	context := rec.Context
	if context == "" {
		context = "-"
	}
	return fmt.Sprintf("%s.%s: %s %s", context, rec.Level, rec.Message, data), nil
}

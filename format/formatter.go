// Package format maps finished records onto destination-specific payloads.
// Formatters are pure functions of their input; the ChromeLogger and Loki
// formatters additionally carry constructor-supplied state and guard it
// with their own locks.
package format

import (
	"encoding/json"

	"github.com/croftbyte/go-fanlog/record"
)

// Formatter renders a record into a single payload string.
type Formatter interface {
	Format(rec record.Record) (string, error)
}

// Func adapts a plain function to the Formatter interface.
type Func func(rec record.Record) (string, error)

// Format calls the wrapped function.
func (f Func) Format(rec record.Record) (string, error) {
	return f(rec)
}

// compactJSON encodes a value as compact JSON with no trailing newline.
// encoding/json's HTML escaping of <, > and & applies.
func compactJSON(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// dataJSON encodes the record's data map, rendering an empty object for a
// nil map.
func dataJSON(rec record.Record) (string, error) {
	if rec.Data == nil {
		return "{}", nil
	}
	return compactJSON(rec.Data)
}

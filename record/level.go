// Package record defines the severity table, the log record model, and the
// record builder with its two-tier enrichment and message interpolation.
package record

import (
	"fmt"
	"strings"
)

// Level is the severity rank of a log record. Higher values are more severe.
type Level int8

// The eight severities, least severe first.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
	Critical
	Alert
	Emergency
)

var levelNames = [...]string{
	Debug:     "debug",
	Info:      "info",
	Notice:    "notice",
	Warning:   "warning",
	Error:     "error",
	Critical:  "critical",
	Alert:     "alert",
	Emergency: "emergency",
}

// Levels returns every level in ascending severity order.
func Levels() []Level {
	return []Level{Debug, Info, Notice, Warning, Error, Critical, Alert, Emergency}
}

// String returns the canonical lowercase name of the level.
// Unknown ranks render as their numeric form.
func (l Level) String() string {
	if l < Debug || l > Emergency {
		return fmt.Sprintf("level(%d)", int8(l))
	}
	return levelNames[l]
}

// Valid reports whether the level is one of the eight defined severities.
func (l Level) Valid() bool {
	return l >= Debug && l <= Emergency
}

// MarshalText encodes the level as its canonical name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("record: invalid level rank %d", int8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level from its name, case-insensitively.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel maps a severity name to its level. Names are matched
// case-insensitively.
func ParseLevel(name string) (Level, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range levelNames {
		if n == lower {
			return Level(i), nil
		}
	}
	return Debug, fmt.Errorf("record: unknown level %q", name)
}

package format

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/croftbyte/go-fanlog/record"
)

// chromeVersion is the ChromeLogger protocol version emitted in batches.
const chromeVersion = "4.1.0"

// ChromeLogger accumulates records as ChromeLogger rows and renders the
// batch payload consumed by the browser extension. It is safe for
// concurrent use.
type ChromeLogger struct {
	mu   sync.Mutex
	rows []chromeRow
}

// NewChromeLogger creates an empty ChromeLogger formatter.
func NewChromeLogger() *ChromeLogger {
	return &ChromeLogger{}
}

// chromeRow is the [log, backtrace, type] triple of the wire format.
type chromeRow [3]any

type chromeBatch struct {
	Version string      `json:"version"`
	Columns []string    `json:"columns"`
	Rows    []chromeRow `json:"rows"`
}

// chromeType maps a level onto the four console methods.
func chromeType(level record.Level) string {
	switch {
	case level >= record.Error:
		return "error"
	case level == record.Warning:
		return "warn"
	case level >= record.Info:
		return "info"
	default:
		return "log"
	}
}

// Format appends a row for the record and returns that row's encoding.
// The backtrace column is filled from the record's "file" and "line" data
// keys when present.
func (c *ChromeLogger) Format(rec record.Record) (string, error) {
	parts := []any{rec.Message}
	if len(rec.Data) > 0 {
		parts = append(parts, rec.Data)
	}

	row := chromeRow{parts, backtrace(rec), chromeType(rec.Level)}

	c.mu.Lock()
	c.rows = append(c.rows, row)
	c.mu.Unlock()

	encoded, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Payload renders the accumulated batch.
func (c *ChromeLogger) Payload() (string, error) {
	c.mu.Lock()
	rows := make([]chromeRow, len(c.rows))
	copy(rows, c.rows)
	c.mu.Unlock()

	encoded, err := json.Marshal(chromeBatch{
		Version: chromeVersion,
		Columns: []string{"log", "backtrace", "type"},
		Rows:    rows,
	})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Rows returns a copy of the accumulated rows.
func (c *ChromeLogger) Rows() []chromeRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]chromeRow, len(c.rows))
	copy(rows, c.rows)
	return rows
}

// Len returns the number of accumulated rows.
func (c *ChromeLogger) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Reset drops every accumulated row.
func (c *ChromeLogger) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = nil
}

func backtrace(rec record.Record) string {
	file, ok := rec.Data["file"].(string)
	if !ok || file == "" {
		return "unknown"
	}
	switch line := rec.Data["line"].(type) {
	case int:
		return fmt.Sprintf("%s:%d", file, line)
	case int64:
		return fmt.Sprintf("%s:%d", file, line)
	case float64:
		return fmt.Sprintf("%s:%d", file, int64(line))
	case string:
		if line != "" {
			return file + ":" + line
		}
	}
	return file
}

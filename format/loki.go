package format

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/croftbyte/go-fanlog/record"
)

// Loki renders records as Grafana Loki push payloads. Static labels are
// supplied at construction and merged with the record's level and context.
//
// Label values are sanitised with the same character rules Loki applies to
// label keys; the keys themselves pass through unchanged. The upstream
// behaviour is preserved on purpose; do not move the sanitisation to keys.
type Loki struct {
	mu           sync.RWMutex
	staticLabels map[string]string
	now          func() time.Time
}

// NewLoki creates a Loki formatter with the given static labels.
func NewLoki(staticLabels map[string]string) *Loki {
	labels := make(map[string]string, len(staticLabels))
	for k, v := range staticLabels {
		labels[k] = v
	}
	return &Loki{staticLabels: labels, now: time.Now}
}

// SetLabel adds or replaces a static label.
func (l *Loki) SetLabel(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staticLabels[key] = value
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

// Format renders a single-stream push body with one value entry.
func (l *Loki) Format(rec record.Record) (string, error) {
	l.mu.RLock()
	labels := make(map[string]string, len(l.staticLabels)+2)
	for k, v := range l.staticLabels {
		labels[k] = sanitizeLabel(v)
	}
	l.mu.RUnlock()

	labels["level"] = sanitizeLabel(rec.Level.String())
	if rec.Context != "" {
		labels["context"] = sanitizeLabel(rec.Context)
	}

	line := rec.Message
	if len(rec.Data) > 0 {
		data, err := compactJSON(rec.Data)
		if err != nil {
			return "", err
		}
		line += " " + data
	}

	payload := lokiPayload{
		Streams: []lokiStream{{
			Stream: labels,
			Values: [][2]string{{strconv.FormatInt(l.timestamp(rec), 10), line}},
		}},
	}
	return compactJSON(payload)
}

// timestamp derives the nanosecond timestamp from the record's root
// timestamp field when one is present and usable, falling back to the
// current wall clock.
func (l *Loki) timestamp(rec record.Record) int64 {
	v, ok := rec.Root("timestamp")
	if !ok {
		return l.now().UnixNano()
	}

	switch t := v.(type) {
	case time.Time:
		return t.UnixNano()
	case int:
		return int64(t) * int64(time.Second)
	case int64:
		return t * int64(time.Second)
	case float64:
		if t == float64(int64(t)) {
			return int64(t) * int64(time.Second)
		}
	case string:
		if secs, err := strconv.ParseInt(t, 10, 64); err == nil {
			return secs * int64(time.Second)
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UnixNano()
		}
	}
	return l.now().UnixNano()
}

// sanitizeLabel replaces every run of characters outside [a-zA-Z0-9_] with
// a single underscore, prefixing one when the result does not start with a
// letter or underscore.
func sanitizeLabel(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	inRun := false
	for _, c := range value {
		valid := c == '_' ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9')
		if valid {
			b.WriteRune(c)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	first := out[0]
	if first != '_' && !(first >= 'a' && first <= 'z') && !(first >= 'A' && first <= 'Z') {
		out = "_" + out
	}
	return out
}

// sortedLabelKeys is used by tests to assert stable label sets.
func sortedLabelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

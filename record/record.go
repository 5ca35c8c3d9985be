package record

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field is a single root-level entry contributed by a registered field
// producer. Fields keep their registration order so serialised records are
// stable.
type Field struct {
	Key   string
	Value any
}

// Record is the finished log record handed to formatters. The three
// mandatory surfaces are Context, Level, and Message; Fields carries the
// registered root fields in registration order, and Data carries the merged
// call-site context and extras.
type Record struct {
	Context string
	Level   Level
	Message string
	Fields  []Field
	Data    map[string]any
}

// Root returns the value of a root field, if registered.
func (r Record) Root(key string) (any, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// DataKeys returns the data keys in sorted order. Formatters that need a
// stable byte stream iterate the data map through this.
func (r Record) DataKeys() []string {
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the record as a JSON object whose key order follows
// the record: context, level, message, the root fields in registration
// order, then data.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writePair := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := marshalValue(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writePair("context", r.Context); err != nil {
		return nil, err
	}
	if err := writePair("level", r.Level.String()); err != nil {
		return nil, err
	}
	if err := writePair("message", r.Message); err != nil {
		return nil, err
	}
	for _, f := range r.Fields {
		if err := writePair(f.Key, f.Value); err != nil {
			return nil, err
		}
	}

	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	if err := writePair("data", data); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes a value, evaluating producer callables first.
// Function values never reach the encoder.
func marshalValue(v any) ([]byte, error) {
	return json.Marshal(evaluate(v))
}

// evaluate resolves nullary callables to their result; all other values
// pass through unchanged.
func evaluate(v any) any {
	switch fn := v.(type) {
	case Producer:
		return fn()
	case func() any:
		return fn()
	case func() string:
		return fn()
	default:
		return v
	}
}

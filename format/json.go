package format

import (
	"github.com/croftbyte/go-fanlog/record"
)

// JSON renders the record as a JSON object whose key order follows the
// record itself: context, level, message, the root fields in registration
// order, then data.
type JSON struct{}

// NewJSON creates the JSON formatter.
func NewJSON() *JSON {
	return &JSON{}
}

// Format encodes the record.
func (*JSON) Format(rec record.Record) (string, error) {
	encoded, err := rec.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

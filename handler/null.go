package handler

import "github.com/croftbyte/go-fanlog/record"

// Null formats responsible records and discards them. Useful for measuring
// formatting cost and for disabling a destination without rewiring.
type Null struct {
	*Base
}

var _ Streamable = (*Null)(nil)

// NewNull creates a null handler.
func NewNull(minLevel record.Level) *Null {
	return &Null{Base: NewBase("null", minLevel)}
}

// Handle formats the record and reports success without writing anywhere,
// unless a stream override is set.
func (h *Null) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}
	return payload, true, nil
}

// Package chrome implements the browser-console sink. Records accumulate
// as ChromeLogger rows; at request shutdown the batch is base64-encoded
// into the X-ChromeLogger-Data response header, provided the response
// headers are still open. The middleware package wires this into echo.
package chrome

import (
	"encoding/base64"
	"sync"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// MaxPayloadBytes caps the accumulated batch JSON. When a row pushes the
// batch past the cap, the current batch is handed to the flush hook and a
// new batch begins.
const MaxPayloadBytes = 240000

// HeaderName is the response header carrying the encoded batch.
const HeaderName = "X-ChromeLogger-Data"

// FlushFunc receives a finished batch payload (raw JSON, not yet encoded).
type FlushFunc func(payload string)

// Handler accumulates rows in its ChromeLogger formatter.
type Handler struct {
	*handler.Base
	rows *format.ChromeLogger

	hookMu  sync.Mutex
	onFlush FlushFunc
}

var _ handler.Streamable = (*Handler)(nil)

// New creates the sink with its own row accumulator.
func New(minLevel record.Level) *Handler {
	h := &Handler{
		Base: handler.NewBase("chrome", minLevel),
		rows: format.NewChromeLogger(),
	}
	h.SetFormatter(h.rows)
	return h
}

// SetFlushFunc installs the hook receiving over-cap batches.
func (h *Handler) SetFlushFunc(fn FlushFunc) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()
	h.onFlush = fn
}

// Handle appends the record's row. Formatting through the ChromeLogger
// formatter is itself the accumulation.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}
	if err := h.enforceCap(); err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// enforceCap rolls the batch over when it exceeds the payload cap.
func (h *Handler) enforceCap() error {
	batch, err := h.rows.Payload()
	if err != nil {
		return err
	}
	if len(batch) <= MaxPayloadBytes {
		return nil
	}

	h.hookMu.Lock()
	hook := h.onFlush
	h.hookMu.Unlock()
	if hook != nil {
		hook(batch)
	}
	h.rows.Reset()
	return nil
}

// HeaderValue returns the base64-encoded batch for the response header and
// whether any rows were accumulated.
func (h *Handler) HeaderValue() (string, bool, error) {
	if h.rows.Len() == 0 {
		return "", false, nil
	}
	batch, err := h.rows.Payload()
	if err != nil {
		return "", false, err
	}
	return base64.StdEncoding.EncodeToString([]byte(batch)), true, nil
}

// Rows exposes the accumulator for tests and the middleware.
func (h *Handler) Rows() *format.ChromeLogger {
	return h.rows
}

// Reset drops the accumulated rows.
func (h *Handler) Reset() {
	h.rows.Reset()
}

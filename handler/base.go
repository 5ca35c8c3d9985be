package handler

import (
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/record"
)

// Base carries the state every handler shares: identity, optional name,
// minimum level, context, formatter, stream override, and the record
// registry. Concrete handlers embed it.
type Base struct {
	mu        sync.Mutex
	id        string
	kind      string
	name      string
	minLevel  record.Level
	context   string
	formatter format.Formatter
	stream    io.Writer
	registry  *record.Registry
}

// NewBase creates the shared handler state for the given kind and minimum
// level. The identity is assigned here and never changes.
func NewBase(kind string, minLevel record.Level) *Base {
	return &Base{
		id:       uuid.NewString(),
		kind:     kind,
		minLevel: minLevel,
		registry: record.Default(),
	}
}

// ID returns the handler's immutable identity.
func (b *Base) ID() string {
	return b.id
}

// Kind returns the handler's runtime kind.
func (b *Base) Kind() string {
	return b.kind
}

// Name returns the handler's optional name.
func (b *Base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetName assigns the handler's mutable name.
func (b *Base) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}

// Context returns the context string propagated by the owning logger.
func (b *Base) Context() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.context
}

// SetContext assigns the context string.
func (b *Base) SetContext(context string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.context = context
}

// SetFormatter overrides the handler's formatter.
func (b *Base) SetFormatter(f format.Formatter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.formatter = f
}

// Formatter returns the handler's formatter, creating the default line
// formatter on first use.
func (b *Base) Formatter() format.Formatter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.formatter == nil {
		b.formatter = format.NewLine()
	}
	return b.formatter
}

// MinLevel returns the handler's minimum level.
func (b *Base) MinLevel() record.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minLevel
}

// SetMinLevel adjusts the handler's minimum level.
func (b *Base) SetMinLevel(level record.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minLevel = level
}

// SetStream redirects the handler's output to a caller-supplied sink.
func (b *Base) SetStream(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stream = w
}

// Stream returns the current stream override, if any.
func (b *Base) Stream() io.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stream
}

// SetRegistry swaps the record registry. Used by tests and embedded
// deployments that avoid the package-level registry.
func (b *Base) SetRegistry(r *record.Registry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry = r
}

// Responsible reports whether the handler handles records of this level.
func (b *Base) Responsible(level record.Level) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return level >= b.minLevel
}

// Prepare gates the level and renders the record. ok is false when the
// handler is not responsible for the level; an error reports a formatter
// failure.
func (b *Base) Prepare(level record.Level, message string, callContext map[string]any) (rec record.Record, payload string, ok bool, err error) {
	if !b.Responsible(level) {
		return record.Record{}, "", false, nil
	}
	b.mu.Lock()
	registry := b.registry
	context := b.context
	b.mu.Unlock()

	rec = registry.Build(context, level, message, callContext)
	payload, err = b.Formatter().Format(rec)
	if err != nil {
		return record.Record{}, "", false, err
	}
	return rec, payload, true, nil
}

// StreamOverride writes the payload to the stream override when one is
// set. handled reports whether an override consumed the record; delivered
// reports whether the write succeeded. Write failures are swallowed.
func (b *Base) StreamOverride(payload string) (handled, delivered bool) {
	w := b.Stream()
	if w == nil {
		return false, false
	}
	_, err := io.WriteString(w, payload+"\n")
	return true, err == nil
}

// Package decorator implements the handlers that wrap other handlers and
// decide which records reach them: FingersCrossed buffering, Sampling, and
// Conditional routing.
package decorator

import (
	"errors"
	"io"
	"sync"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

const (
	// DefaultCapacity is the buffer capacity when none is configured.
	DefaultCapacity = 100

	// DefaultActivationLevel triggers flushing when none is configured.
	DefaultActivationLevel = record.Error
)

// bufferedEntry is one withheld record.
type bufferedEntry struct {
	level   record.Level
	message string
	data    map[string]any
}

// FingersCrossed withholds records in a bounded FIFO buffer until one
// meets the activation level, then flushes the buffer and the trigger to
// the wrapped handler in arrival order. With latching on (the default),
// every later record is forwarded directly; with latching off the
// decorator resumes buffering and re-flushes on the next trigger.
type FingersCrossed struct {
	*handler.Base
	child handler.Streamable

	mu sync.Mutex

	activation record.Level
	capacity   int
	latching   bool

	activated bool
	buffer    []bufferedEntry
}

var _ handler.Streamable = (*FingersCrossed)(nil)

// FingersCrossedOption adjusts a FingersCrossed decorator at construction.
type FingersCrossedOption func(*FingersCrossed)

// WithActivationLevel sets the level that triggers flushing.
func WithActivationLevel(level record.Level) FingersCrossedOption {
	return func(fc *FingersCrossed) {
		fc.activation = level
	}
}

// WithCapacity bounds the buffer. Values below one are raised to one.
func WithCapacity(capacity int) FingersCrossedOption {
	return func(fc *FingersCrossed) {
		if capacity < 1 {
			capacity = 1
		}
		fc.capacity = capacity
	}
}

// WithoutLatching makes the decorator resume buffering after each flush.
func WithoutLatching() FingersCrossedOption {
	return func(fc *FingersCrossed) {
		fc.latching = false
	}
}

// NewFingersCrossed wraps child with the buffering decorator.
func NewFingersCrossed(child handler.Streamable, opts ...FingersCrossedOption) *FingersCrossed {
	fc := &FingersCrossed{
		Base:       handler.NewBase("fingers-crossed", record.Debug),
		child:      child,
		activation: DefaultActivationLevel,
		capacity:   DefaultCapacity,
		latching:   true,
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// Handle buffers, activates, or forwards per the decorator contract.
func (fc *FingersCrossed) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.activated && fc.latching {
		return fc.child.Handle(level, message, callContext)
	}

	if level >= fc.activation {
		fc.activated = true
		flushErr := fc.drainLocked()
		payload, delivered, err := fc.child.Handle(level, message, callContext)
		if err == nil {
			err = flushErr
		}
		return payload, delivered, err
	}

	if len(fc.buffer) == fc.capacity {
		fc.buffer = fc.buffer[1:]
	}
	fc.buffer = append(fc.buffer, bufferedEntry{level: level, message: message, data: callContext})
	return "", false, nil
}

// Flush drains the buffer to the wrapped handler without activating.
func (fc *FingersCrossed) Flush() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.drainLocked()
}

// drainLocked forwards the buffered entries in FIFO order. Errors from
// individual deliveries are collected, not short-circuited.
func (fc *FingersCrossed) drainLocked() error {
	var errs []error
	for _, e := range fc.buffer {
		if _, _, err := fc.child.Handle(e.level, e.message, e.data); err != nil {
			errs = append(errs, err)
		}
	}
	fc.buffer = fc.buffer[:0]
	return errors.Join(errs...)
}

// Reset clears the activation flag and the buffer.
func (fc *FingersCrossed) Reset() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.activated = false
	fc.buffer = fc.buffer[:0]
}

// FingersCrossedStatistics is the observable state of the decorator.
type FingersCrossedStatistics struct {
	BufferSize      int
	Capacity        int
	Activated       bool
	ActivationLevel record.Level
	Latching        bool
}

// Statistics snapshots the decorator state.
func (fc *FingersCrossed) Statistics() FingersCrossedStatistics {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return FingersCrossedStatistics{
		BufferSize:      len(fc.buffer),
		Capacity:        fc.capacity,
		Activated:       fc.activated,
		ActivationLevel: fc.activation,
		Latching:        fc.latching,
	}
}

// SetContext propagates the context to the wrapped handler.
func (fc *FingersCrossed) SetContext(context string) {
	fc.Base.SetContext(context)
	fc.child.SetContext(context)
}

// SetFormatter propagates the formatter to the wrapped handler.
func (fc *FingersCrossed) SetFormatter(f format.Formatter) {
	fc.Base.SetFormatter(f)
	fc.child.SetFormatter(f)
}

// SetStream propagates the stream override to the wrapped handler.
func (fc *FingersCrossed) SetStream(w io.Writer) {
	fc.Base.SetStream(w)
	fc.child.SetStream(w)
}

// Package logger holds the Logger: a context-carrying registry of handlers
// that fans every record out to them in insertion order, isolating each
// handler's faults behind an optional error hook.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// ErrorHook observes a handler fault: the error, the failing handler's
// identity, and the record triple. It must not raise; a panicking hook is
// ignored and dispatch continues.
type ErrorHook func(err error, handlerID string, level record.Level, message string, callContext map[string]any)

// Observer is notified about dispatch outcomes. The observability package
// provides an OpenTelemetry-backed implementation.
type Observer interface {
	Dispatched(level record.Level)
	Delivered(handlerKind string)
	Dropped(handlerKind string)
	Failed(handlerKind string)
}

// Logger fans records out to its handlers.
type Logger struct {
	mu       sync.RWMutex
	context  string
	order    []string
	handlers map[string]handler.Handler
	names    map[string]string
	hook     ErrorHook
	observer Observer
}

// internalLog reports library faults when no error hook is installed.
var internalLog = zerolog.New(os.Stderr).With().Timestamp().Str("component", "fanlog").Logger()

// New creates a logger with the given context string.
func New(context string) *Logger {
	return &Logger{
		context:  context,
		handlers: make(map[string]handler.Handler),
		names:    make(map[string]string),
	}
}

// Context returns the logger's context string.
func (l *Logger) Context() string {
	return l.context
}

// SetErrorHook installs the fault observer.
func (l *Logger) SetErrorHook(hook ErrorHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hook = hook
}

// SetObserver installs the dispatch observer.
func (l *Logger) SetObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = o
}

// AddHandler registers a handler, assigns it the logger's context, and
// indexes its name when it has one. Registering the same instance twice is
// a no-op.
func (l *Logger) AddHandler(h handler.Handler) {
	if h == nil {
		return
	}
	h.SetContext(l.context)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.handlers[h.ID()]; exists {
		return
	}
	l.handlers[h.ID()] = h
	l.order = append(l.order, h.ID())
	if name := h.Name(); name != "" {
		l.names[name] = h.ID()
	}
}

// Handler looks a handler up by name.
func (l *Logger) Handler(name string) (handler.Handler, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.names[name]
	if !ok {
		return nil, false
	}
	h, ok := l.handlers[id]
	return h, ok
}

// HandlersByKind returns every registered handler of the given runtime
// kind, in insertion order.
func (l *Logger) HandlersByKind(kind string) []handler.Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []handler.Handler
	for _, id := range l.order {
		if h := l.handlers[id]; h.Kind() == kind {
			out = append(out, h)
		}
	}
	return out
}

// Handlers returns the registered handlers in insertion order.
func (l *Logger) Handlers() []handler.Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]handler.Handler, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.handlers[id])
	}
	return out
}

// RemoveHandler drops a handler by name or, failing that, by identity. Any
// name index entry pointing at the handler is removed either way.
func (l *Logger) RemoveHandler(nameOrID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := nameOrID
	if mapped, ok := l.names[nameOrID]; ok {
		id = mapped
	}
	if _, ok := l.handlers[id]; !ok {
		return false
	}

	delete(l.handlers, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	for name, mapped := range l.names {
		if mapped == id {
			delete(l.names, name)
		}
	}
	return true
}

// Log dispatches one record to every handler in insertion order. A failing
// handler never prevents delivery to the remaining ones.
func (l *Logger) Log(level record.Level, message string, callContext map[string]any) {
	l.mu.RLock()
	handlers := make([]handler.Handler, 0, len(l.order))
	for _, id := range l.order {
		handlers = append(handlers, l.handlers[id])
	}
	hook := l.hook
	observer := l.observer
	l.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	if observer != nil {
		observer.Dispatched(level)
	}

	for _, h := range handlers {
		delivered, err := invoke(h, level, message, callContext)
		if observer != nil {
			switch {
			case err != nil:
				observer.Failed(h.Kind())
			case delivered:
				observer.Delivered(h.Kind())
			default:
				observer.Dropped(h.Kind())
			}
		}
		if err != nil {
			fireHook(hook, err, h.ID(), level, message, callContext)
		}
	}
}

// invoke runs one handler, converting a panic into an error.
func invoke(h handler.Handler, level record.Level, message string, callContext map[string]any) (delivered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			delivered = false
			err = fmt.Errorf("handler %s panicked: %v", h.ID(), r)
		}
	}()
	_, delivered, err = h.Handle(level, message, callContext)
	return delivered, err
}

// fireHook routes a handler fault to the hook, shielding dispatch from a
// hook that itself panics. Without a hook the fault goes to the internal
// zerolog stream.
func fireHook(hook ErrorHook, err error, handlerID string, level record.Level, message string, callContext map[string]any) {
	if hook == nil {
		internalLog.Error().
			Err(err).
			Str("handler_id", handlerID).
			Str("level", level.String()).
			Msg("handler failed")
		return
	}
	defer func() {
		_ = recover()
	}()
	hook(err, handlerID, level, message, callContext)
}

// Debug logs at debug level.
func (l *Logger) Debug(message string, callContext map[string]any) {
	l.Log(record.Debug, message, callContext)
}

// Info logs at info level.
func (l *Logger) Info(message string, callContext map[string]any) {
	l.Log(record.Info, message, callContext)
}

// Notice logs at notice level.
func (l *Logger) Notice(message string, callContext map[string]any) {
	l.Log(record.Notice, message, callContext)
}

// Warning logs at warning level.
func (l *Logger) Warning(message string, callContext map[string]any) {
	l.Log(record.Warning, message, callContext)
}

// Error logs at error level.
func (l *Logger) Error(message string, callContext map[string]any) {
	l.Log(record.Error, message, callContext)
}

// Critical logs at critical level.
func (l *Logger) Critical(message string, callContext map[string]any) {
	l.Log(record.Critical, message, callContext)
}

// Alert logs at alert level.
func (l *Logger) Alert(message string, callContext map[string]any) {
	l.Log(record.Alert, message, callContext)
}

// Emergency logs at emergency level.
func (l *Logger) Emergency(message string, callContext map[string]any) {
	l.Log(record.Emergency, message, callContext)
}

// Close releases every handler that owns resources, concurrently, and
// returns the first close error.
func (l *Logger) Close() error {
	var g errgroup.Group
	for _, h := range l.Handlers() {
		closer, ok := h.(io.Closer)
		if !ok {
			continue
		}
		g.Go(closer.Close)
	}
	return g.Wait()
}

package decorator

import (
	"io"
	"sync"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// delivery is one call the recording handler saw.
type delivery struct {
	level   record.Level
	message string
	data    map[string]any
}

// recordingHandler captures every invocation. It satisfies Streamable so
// decorators accept it as a child.
type recordingHandler struct {
	*handler.Base

	mu         sync.Mutex
	deliveries []delivery
	failWith   error

	contexts   []string
	formatters []format.Formatter
	streams    []io.Writer
}

var _ handler.Streamable = (*recordingHandler)(nil)

func newRecording() *recordingHandler {
	return &recordingHandler{Base: handler.NewBase("recording", record.Debug)}
}

func (r *recordingHandler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{level: level, message: message, data: callContext})
	if r.failWith != nil {
		return "", false, r.failWith
	}
	return message, true, nil
}

func (r *recordingHandler) SetContext(context string) {
	r.Base.SetContext(context)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, context)
}

func (r *recordingHandler) SetFormatter(f format.Formatter) {
	r.Base.SetFormatter(f)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters = append(r.formatters, f)
}

func (r *recordingHandler) SetStream(w io.Writer) {
	r.Base.SetStream(w)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, w)
}

func (r *recordingHandler) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.deliveries))
	for i, d := range r.deliveries {
		out[i] = d.message
	}
	return out
}

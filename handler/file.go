package handler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/croftbyte/go-fanlog/record"
)

// File appends formatted records to a file. The file is opened lazily on
// the first accepted record and owned by the handler: Close releases it.
// Construction fails when the parent directory does not exist.
type File struct {
	*Base
	path string

	fileMu sync.Mutex
	file   *os.File
	failed bool
}

var _ Streamable = (*File)(nil)
var _ io.Closer = (*File)(nil)

// NewFile creates a file handler for path.
func NewFile(path string, minLevel record.Level) (*File, error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, NewConstructionError("file", fmt.Sprintf("parent directory %s does not exist", dir), err)
	}
	if !info.IsDir() {
		return nil, NewConstructionError("file", fmt.Sprintf("parent %s is not a directory", dir), nil)
	}
	return &File{
		Base: NewBase("file", minLevel),
		path: path,
	}, nil
}

// Path returns the destination path.
func (h *File) Path() string {
	return h.path
}

// Handle appends the payload to the file, opening it on first use.
func (h *File) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	h.fileMu.Lock()
	defer h.fileMu.Unlock()

	if h.failed {
		return "", false, nil
	}
	if h.file == nil {
		f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			h.failed = true
			return "", false, nil
		}
		h.file = f
	}
	if _, err := h.file.WriteString(payload + "\n"); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// Close releases the owned file. Safe to call before the first write and
// more than once.
func (h *File) Close() error {
	h.fileMu.Lock()
	defer h.fileMu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

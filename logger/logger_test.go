package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// fakeHandler records invocations and optionally fails or panics.
type fakeHandler struct {
	*handler.Base
	messages []string
	failWith error
	panics   bool
}

func newFake(kind string) *fakeHandler {
	return &fakeHandler{Base: handler.NewBase(kind, record.Debug)}
}

func (f *fakeHandler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	if f.panics {
		panic("broken handler")
	}
	if !f.Responsible(level) {
		return "", false, nil
	}
	f.messages = append(f.messages, message)
	if f.failWith != nil {
		return "", false, f.failWith
	}
	return message, true, nil
}

func TestAddHandlerAssignsContext(t *testing.T) {
	log := New("orders")
	h := newFake("fake")
	log.AddHandler(h)

	assert.Equal(t, "orders", h.Context())
	assert.Len(t, log.Handlers(), 1)
}

func TestAddHandlerDuplicateIsNoOp(t *testing.T) {
	log := New("orders")
	h := newFake("fake")
	log.AddHandler(h)
	log.AddHandler(h)

	assert.Len(t, log.Handlers(), 1)

	log.Log(record.Info, "once", nil)
	assert.Equal(t, []string{"once"}, h.messages)
}

func TestDispatchInsertionOrder(t *testing.T) {
	log := New("app")
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		h := newFake("fake")
		name := name
		log.AddHandler(&orderedFake{fakeHandler: h, seen: &order, tag: name})
	}

	log.Log(record.Info, "m", nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

type orderedFake struct {
	*fakeHandler
	seen *[]string
	tag  string
}

func (o *orderedFake) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	*o.seen = append(*o.seen, o.tag)
	return o.fakeHandler.Handle(level, message, callContext)
}

func TestEveryHandlerInvokedExactlyOnce(t *testing.T) {
	log := New("app")
	h1 := newFake("fake")
	h2 := newFake("fake")
	log.AddHandler(h1)
	log.AddHandler(h2)

	log.Log(record.Info, "m", nil)

	assert.Equal(t, []string{"m"}, h1.messages)
	assert.Equal(t, []string{"m"}, h2.messages)
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	log := New("app")
	failing := newFake("fake")
	failing.failWith = assert.AnError
	after := newFake("fake")
	log.AddHandler(failing)
	log.AddHandler(after)

	var hookErr error
	var hookHandlerID string
	log.SetErrorHook(func(err error, handlerID string, level record.Level, message string, callContext map[string]any) {
		hookErr = err
		hookHandlerID = handlerID
	})

	log.Log(record.Info, "m", nil)

	assert.Equal(t, []string{"m"}, after.messages)
	assert.ErrorIs(t, hookErr, assert.AnError)
	assert.Equal(t, failing.ID(), hookHandlerID)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	log := New("app")
	panicking := newFake("fake")
	panicking.panics = true
	after := newFake("fake")
	log.AddHandler(panicking)
	log.AddHandler(after)

	var hookErr error
	log.SetErrorHook(func(err error, handlerID string, level record.Level, message string, callContext map[string]any) {
		hookErr = err
	})

	assert.NotPanics(t, func() {
		log.Log(record.Error, "m", nil)
	})
	assert.Equal(t, []string{"m"}, after.messages)
	require.Error(t, hookErr)
	assert.Contains(t, hookErr.Error(), "panicked")
}

func TestPanickingHookIsIgnored(t *testing.T) {
	log := New("app")
	failing := newFake("fake")
	failing.failWith = assert.AnError
	after := newFake("fake")
	log.AddHandler(failing)
	log.AddHandler(after)

	log.SetErrorHook(func(error, string, record.Level, string, map[string]any) {
		panic("bad hook")
	})

	assert.NotPanics(t, func() {
		log.Log(record.Info, "m", nil)
	})
	assert.Equal(t, []string{"m"}, after.messages)
}

func TestEmptyHandlerSetReturnsImmediately(t *testing.T) {
	log := New("app")
	assert.NotPanics(t, func() {
		log.Log(record.Info, "m", nil)
	})
}

func TestHandlerLookupByName(t *testing.T) {
	log := New("app")
	h := newFake("fake")
	h.SetName("primary")
	log.AddHandler(h)

	found, ok := log.Handler("primary")
	require.True(t, ok)
	assert.Equal(t, h.ID(), found.ID())

	_, ok = log.Handler("missing")
	assert.False(t, ok)
}

func TestHandlersByKind(t *testing.T) {
	log := New("app")
	log.AddHandler(newFake("alpha"))
	log.AddHandler(newFake("beta"))
	log.AddHandler(newFake("alpha"))

	assert.Len(t, log.HandlersByKind("alpha"), 2)
	assert.Len(t, log.HandlersByKind("beta"), 1)
	assert.Empty(t, log.HandlersByKind("gamma"))
}

func TestRemoveHandlerByName(t *testing.T) {
	log := New("app")
	h := newFake("fake")
	h.SetName("primary")
	log.AddHandler(h)

	assert.True(t, log.RemoveHandler("primary"))
	assert.Empty(t, log.Handlers())
	_, ok := log.Handler("primary")
	assert.False(t, ok)
}

func TestRemoveHandlerByIdentityCleansNameIndex(t *testing.T) {
	log := New("app")
	h := newFake("fake")
	h.SetName("primary")
	log.AddHandler(h)

	assert.True(t, log.RemoveHandler(h.ID()))
	assert.Empty(t, log.Handlers())
	_, ok := log.Handler("primary")
	assert.False(t, ok)
}

func TestRemoveHandlerUnknown(t *testing.T) {
	log := New("app")
	assert.False(t, log.RemoveHandler("nope"))
}

func TestObserverCounts(t *testing.T) {
	log := New("app")
	delivered := newFake("ok")
	failing := newFake("bad")
	failing.failWith = assert.AnError
	gated := newFake("gated")
	gated.SetMinLevel(record.Emergency)
	log.AddHandler(delivered)
	log.AddHandler(failing)
	log.AddHandler(gated)
	log.SetErrorHook(func(error, string, record.Level, string, map[string]any) {})

	obs := &countingObserver{}
	log.SetObserver(obs)

	log.Log(record.Info, "m", nil)

	assert.Equal(t, 1, obs.dispatched)
	assert.Equal(t, 1, obs.delivered)
	assert.Equal(t, 1, obs.failed)
	assert.Equal(t, 1, obs.dropped)
}

type countingObserver struct {
	dispatched, delivered, dropped, failed int
}

func (c *countingObserver) Dispatched(record.Level) { c.dispatched++ }
func (c *countingObserver) Delivered(string)        { c.delivered++ }
func (c *countingObserver) Dropped(string)          { c.dropped++ }
func (c *countingObserver) Failed(string)           { c.failed++ }

func TestLevelHelpers(t *testing.T) {
	log := New("app")
	h := newFake("fake")
	seen := make([]record.Level, 0, 8)
	log.AddHandler(&levelFake{fakeHandler: h, seen: &seen})

	log.Debug("m", nil)
	log.Info("m", nil)
	log.Notice("m", nil)
	log.Warning("m", nil)
	log.Error("m", nil)
	log.Critical("m", nil)
	log.Alert("m", nil)
	log.Emergency("m", nil)

	assert.Equal(t, record.Levels(), seen)
}

type levelFake struct {
	*fakeHandler
	seen *[]record.Level
}

func (l *levelFake) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	*l.seen = append(*l.seen, level)
	return l.fakeHandler.Handle(level, message, callContext)
}

func TestMultiDestinationFileRouting(t *testing.T) {
	dir := t.TempDir()
	appPath := filepath.Join(dir, "app.log")
	errPath := filepath.Join(dir, "err.log")

	log := New("app")
	appHandler, err := log.AddFile(appPath, record.Debug, WithName("app"))
	require.NoError(t, err)
	errHandler, err := log.AddFile(errPath, record.Error, WithName("err"))
	require.NoError(t, err)
	defer appHandler.Close()
	defer errHandler.Close()

	log.Debug("d", nil)
	log.Info("i", nil)
	log.Warning("w", nil)
	log.Error("e", nil)
	log.Critical("c", nil)

	appLines := readLines(t, appPath)
	errLines := readLines(t, errPath)
	assert.Len(t, appLines, 5)
	require.Len(t, errLines, 2)
	assert.Contains(t, errLines[0], "error")
	assert.Contains(t, errLines[1], "critical")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func TestInterpolationWithRegisteredExtra(t *testing.T) {
	t.Cleanup(record.Default().Reset)
	record.Default().Reset()
	record.AddExtra("tag", func() any { return "REQ-42" })

	log := New("app")
	var buf strings.Builder
	log.AddWriter(&buf, record.Debug)

	log.Info("{tag} processed", map[string]any{})

	assert.Equal(t, "app.info: REQ-42 processed {\"tag\":\"REQ-42\"}\n", buf.String())
}

func TestCloseReleasesOwningHandlers(t *testing.T) {
	dir := t.TempDir()
	log := New("app")
	_, err := log.AddFile(filepath.Join(dir, "a.log"), record.Debug)
	require.NoError(t, err)
	log.AddConsole(record.Debug)

	log.Info("line", nil)
	assert.NoError(t, log.Close())
}

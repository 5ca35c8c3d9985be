package decorator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbyte/go-fanlog/record"
)

func levelIs(want record.Level) Predicate {
	return func(level record.Level, message string, callContext map[string]any) bool {
		return level == want
	}
}

func userIs(want string) Predicate {
	return func(level record.Level, message string, callContext map[string]any) bool {
		user, _ := callContext["user"].(string)
		return user == want
	}
}

func TestConditionalRoutesFirstMatchWithFallback(t *testing.T) {
	h1 := newRecording()
	h2 := newRecording()
	h3 := newRecording()

	c := NewConditional([]Rule{
		{Predicate: levelIs(record.Error), Handler: h1},
		{Predicate: userIs("admin"), Handler: h2},
	}, h3)

	_, delivered, err := c.Handle(record.Error, "e", map[string]any{})
	require.NoError(t, err)
	assert.True(t, delivered)

	_, delivered, err = c.Handle(record.Info, "i", map[string]any{"user": "admin"})
	require.NoError(t, err)
	assert.True(t, delivered)

	_, delivered, err = c.Handle(record.Info, "i2", map[string]any{})
	require.NoError(t, err)
	assert.True(t, delivered)

	assert.Equal(t, []string{"e"}, h1.messages())
	assert.Equal(t, []string{"i"}, h2.messages())
	assert.Equal(t, []string{"i2"}, h3.messages())
}

func TestConditionalFirstMatchStops(t *testing.T) {
	h1 := newRecording()
	h2 := newRecording()

	c := NewConditional([]Rule{
		{Predicate: levelIs(record.Error), Handler: h1},
		{Predicate: func(record.Level, string, map[string]any) bool { return true }, Handler: h2},
	}, nil)

	c.Handle(record.Error, "e", nil)

	assert.Equal(t, []string{"e"}, h1.messages())
	assert.Empty(t, h2.messages())
}

func TestConditionalNoMatchNoFallback(t *testing.T) {
	h1 := newRecording()
	c := NewConditional([]Rule{
		{Predicate: levelIs(record.Error), Handler: h1},
	}, nil)

	payload, delivered, err := c.Handle(record.Info, "i", nil)
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, payload)
	assert.Empty(t, h1.messages())
}

func TestConditionalNilPredicateSkipped(t *testing.T) {
	h1 := newRecording()
	fallback := newRecording()
	c := NewConditional([]Rule{{Predicate: nil, Handler: h1}}, fallback)

	c.Handle(record.Info, "i", nil)
	assert.Empty(t, h1.messages())
	assert.Equal(t, []string{"i"}, fallback.messages())
}

func TestConditionalPropagatesToAllContained(t *testing.T) {
	h1 := newRecording()
	h2 := newRecording()
	fallback := newRecording()

	c := NewConditional([]Rule{
		{Predicate: levelIs(record.Error), Handler: h1},
		{Predicate: levelIs(record.Info), Handler: h2},
	}, fallback)

	c.SetContext("orders")

	assert.Equal(t, []string{"orders"}, h1.contexts)
	assert.Equal(t, []string{"orders"}, h2.contexts)
	assert.Equal(t, []string{"orders"}, fallback.contexts)
}

func TestConditionalPredicatePanicPropagates(t *testing.T) {
	c := NewConditional([]Rule{
		{Predicate: func(record.Level, string, map[string]any) bool { panic("bad predicate") }, Handler: newRecording()},
	}, nil)

	assert.Panics(t, func() {
		c.Handle(record.Info, "i", nil)
	})
}

package enrich

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTimestampIsRFC3339(t *testing.T) {
	value, ok := Timestamp()().(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, value)
	assert.NoError(t, err)
}

func TestUnixTimestamp(t *testing.T) {
	before := time.Now().Unix()
	value, ok := UnixTimestamp()().(int64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, value, before)
}

func TestUUIDProducesFreshIDs(t *testing.T) {
	producer := UUID()
	a, ok := producer().(string)
	require.True(t, ok)
	b := producer().(string)

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestMemoryIsPositive(t *testing.T) {
	value, ok := Memory()().(uint64)
	require.True(t, ok)
	assert.Greater(t, value, uint64(0))
}

func TestHostname(t *testing.T) {
	_, ok := Hostname()().(string)
	assert.True(t, ok)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", ClientIP(req)())

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req)())

	assert.Equal(t, "", ClientIP(nil)())
}

func TestRequestSnapshot(t *testing.T) {
	req := httptest.NewRequest("POST", "http://api.example.com/orders", nil)
	req.Header.Set("User-Agent", "test-agent")

	snapshot, ok := Request(req)().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "POST", snapshot["method"])
	assert.Equal(t, "/orders", snapshot["path"])
	assert.Equal(t, "api.example.com", snapshot["host"])
	assert.Equal(t, "test-agent", snapshot["user_agent"])

	empty, ok := Request(nil)().(map[string]any)
	require.True(t, ok)
	assert.Empty(t, empty)
}

func TestTraceID(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background())())

	traceID := trace.TraceID{0x01}
	spanID := trace.SpanID{0x02}
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	assert.Equal(t, traceID.String(), TraceID(ctx)())
}

// Package enrich provides the producer callables registered through
// record.AddField and record.AddExtra: timestamps, unique ids, memory
// statistics, client addresses, request snapshots, and trace ids.
package enrich

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/croftbyte/go-fanlog/record"
)

// Timestamp produces the current time in RFC 3339 form.
func Timestamp() record.Producer {
	return func() any {
		return time.Now().Format(time.RFC3339)
	}
}

// UnixTimestamp produces the current time in unix seconds. Registered as
// the "timestamp" root field it also feeds the Loki and Teams formatters.
func UnixTimestamp() record.Producer {
	return func() any {
		return time.Now().Unix()
	}
}

// UUID produces a fresh v4 id per record.
func UUID() record.Producer {
	return func() any {
		return uuid.NewString()
	}
}

// Memory produces the process's current heap allocation in bytes.
func Memory() record.Producer {
	return func() any {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		return stats.Alloc
	}
}

// Hostname produces the host name, or an empty string when unavailable.
func Hostname() record.Producer {
	return func() any {
		name, err := os.Hostname()
		if err != nil {
			return ""
		}
		return name
	}
}

// ClientIP produces the remote address captured from req. A nil request
// yields an empty string.
func ClientIP(req *http.Request) record.Producer {
	return func() any {
		if req == nil {
			return ""
		}
		if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
			return fwd
		}
		return req.RemoteAddr
	}
}

// Request produces a snapshot of the request: method, path, host, remote
// address, and user agent.
func Request(req *http.Request) record.Producer {
	return func() any {
		if req == nil {
			return map[string]any{}
		}
		return map[string]any{
			"method":     req.Method,
			"path":       req.URL.Path,
			"host":       req.Host,
			"remote":     req.RemoteAddr,
			"user_agent": req.UserAgent(),
		}
	}
}

// TraceID produces the OpenTelemetry trace id of the span carried by ctx
// at registration time, or an empty string when ctx carries no valid span
// context.
func TraceID(ctx context.Context) record.Producer {
	return func() any {
		span := trace.SpanContextFromContext(ctx)
		if !span.IsValid() {
			return ""
		}
		return span.TraceID().String()
	}
}

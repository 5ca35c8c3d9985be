// Package redis implements the Redis-backed sinks: a key/value handler
// that stores each record under a TTL, and a pub/sub handler that publishes
// each record to a channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// DefaultTTL is applied to stored records when none is configured.
const DefaultTTL = time.Hour

// connectTimeout bounds the lazy connection probe and each delivery.
const connectTimeout = 5 * time.Second

// Commander is the slice of the go-redis client the sinks use. *redis.Client
// satisfies it; tests fake it with redis.NewStatusResult and friends.
type Commander interface {
	Ping(ctx context.Context) *goredis.StatusCmd
	SetEx(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// KV stores each record with SETEX under a randomised key. The connection
// is probed lazily on the first accepted record; a failed probe moves the
// handler into a silently-failed state in which every later record drops
// without touching the client again.
type KV struct {
	*handler.Base
	client Commander
	ttl    time.Duration

	stateMu sync.Mutex
	probed  bool
	failed  bool
}

var _ handler.Streamable = (*KV)(nil)

// NewKV creates the key/value sink over an already-constructed client.
func NewKV(client Commander, ttl time.Duration, minLevel record.Level) (*KV, error) {
	if client == nil {
		return nil, handler.NewConstructionError("redis-kv", "nil client", nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &KV{
		Base:   handler.NewBase("redis-kv", minLevel),
		client: client,
		ttl:    ttl,
	}, nil
}

// Handle stores the JSON-encoded record. Delivery errors are swallowed.
func (h *KV) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	rec, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	if !h.connected() {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	key := "Redis" + uuid.NewString()
	if err := h.client.SetEx(ctx, key, encodeRecord(rec), h.ttl).Err(); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// connected probes the client once; the verdict is cached for the
// handler's lifetime.
func (h *KV) connected() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.probed {
		return !h.failed
	}
	h.probed = true

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := h.client.Ping(ctx).Err(); err != nil {
		h.failed = true
	}
	return !h.failed
}

// encodeRecord renders the stored value: the record's JSON form, falling
// back to Go's structural rendering when encoding fails.
func encodeRecord(rec record.Record) string {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("%#v", rec)
	}
	return string(encoded)
}

// PubSub publishes each record to a Redis channel. Construction rejects a
// client that cannot answer a ping: brokered sinks require an
// already-connected handle.
type PubSub struct {
	*handler.Base
	client  Commander
	channel string
}

var _ handler.Streamable = (*PubSub)(nil)

// NewPubSub creates the pub/sub sink for the given channel.
func NewPubSub(client Commander, channel string, minLevel record.Level) (*PubSub, error) {
	if client == nil {
		return nil, handler.NewConstructionError("redis-pubsub", "nil client", nil)
	}
	if channel == "" {
		return nil, handler.NewConstructionError("redis-pubsub", "empty channel", nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, handler.NewConstructionError("redis-pubsub", "client is not connected", err)
	}
	return &PubSub{
		Base:    handler.NewBase("redis-pubsub", minLevel),
		client:  client,
		channel: channel,
	}, nil
}

// Handle publishes the formatted payload. Delivery errors are swallowed.
func (h *PubSub) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := h.client.Publish(ctx, h.channel, payload).Err(); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

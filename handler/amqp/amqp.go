// Package amqp implements the AMQP sink: records are published to a
// fan-out exchange that is declared lazily on the first accepted record.
package amqp

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// publishTimeout bounds each publish.
const publishTimeout = 5 * time.Second

// Channel is the slice of an AMQP channel the sink uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connection opens channels. realConnection adapts *amqp.Connection.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
}

type realConnection struct {
	conn *amqp.Connection
}

func (r realConnection) Channel() (Channel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r realConnection) IsClosed() bool {
	return r.conn.IsClosed()
}

// Handler publishes records to a fan-out exchange with an empty routing
// key and persistent delivery mode. The channel and exchange declaration
// happen lazily on the first accepted record. Publish failures are
// swallowed; broker unavailability surfaces only as an undelivered result.
type Handler struct {
	*handler.Base
	conn     Connection
	exchange string

	chanMu  sync.Mutex
	channel Channel
	failed  bool
}

var _ handler.Streamable = (*Handler)(nil)

// New creates the sink over an already-connected *amqp.Connection.
func New(conn *amqp.Connection, exchange string, minLevel record.Level) (*Handler, error) {
	if conn == nil {
		return nil, handler.NewConstructionError("amqp", "nil connection", nil)
	}
	return NewWithConnection(realConnection{conn: conn}, exchange, minLevel)
}

// NewWithConnection creates the sink over any Connection implementation.
// The connection must already be open and authenticated.
func NewWithConnection(conn Connection, exchange string, minLevel record.Level) (*Handler, error) {
	if conn == nil {
		return nil, handler.NewConstructionError("amqp", "nil connection", nil)
	}
	if exchange == "" {
		return nil, handler.NewConstructionError("amqp", "empty exchange name", nil)
	}
	if conn.IsClosed() {
		return nil, handler.NewConstructionError("amqp", "connection is closed", nil)
	}
	return &Handler{
		Base:     handler.NewBase("amqp", minLevel),
		conn:     conn,
		exchange: exchange,
	}, nil
}

// Handle publishes the formatted payload.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	ch := h.ensureChannel()
	if ch == nil {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, h.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         []byte(payload),
	})
	if err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// ensureChannel opens the channel and declares the fan-out exchange on
// first use. A failed setup latches the handler into a silent-drop state.
func (h *Handler) ensureChannel() Channel {
	h.chanMu.Lock()
	defer h.chanMu.Unlock()

	if h.failed {
		return nil
	}
	if h.channel != nil {
		return h.channel
	}

	ch, err := h.conn.Channel()
	if err != nil {
		h.failed = true
		return nil
	}
	if err := ch.ExchangeDeclare(h.exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		h.failed = true
		return nil
	}
	h.channel = ch
	return ch
}

// Close releases the owned channel. The connection belongs to the caller
// and is left open.
func (h *Handler) Close() error {
	h.chanMu.Lock()
	defer h.chanMu.Unlock()
	if h.channel == nil {
		return nil
	}
	err := h.channel.Close()
	h.channel = nil
	return err
}

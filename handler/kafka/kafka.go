// Package kafka implements the Kafka sink over a caller-supplied
// confluent-kafka-go producer.
package kafka

import (
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// Producer is the slice of the confluent producer the sink uses.
// *kafka.Producer satisfies it.
type Producer interface {
	Produce(msg *ckafka.Message, deliveryChan chan ckafka.Event) error
	Poll(timeoutMs int) ckafka.Event
	Flush(timeoutMs int) int
	IsClosed() bool
}

// Handler produces each record to a topic, letting the broker choose the
// partition, and drives the producer's delivery callbacks with a
// non-blocking poll after each publish. Produce failures are swallowed.
type Handler struct {
	*handler.Base
	producer Producer
	topic    string
}

var _ handler.Streamable = (*Handler)(nil)

// New creates the sink. The producer must be constructed and open; a nil
// or closed producer refuses construction.
func New(producer Producer, topic string, minLevel record.Level) (*Handler, error) {
	if producer == nil {
		return nil, handler.NewConstructionError("kafka", "nil producer", nil)
	}
	if topic == "" {
		return nil, handler.NewConstructionError("kafka", "empty topic", nil)
	}
	if producer.IsClosed() {
		return nil, handler.NewConstructionError("kafka", "producer is closed", nil)
	}
	return &Handler{
		Base:     handler.NewBase("kafka", minLevel),
		producer: producer,
		topic:    topic,
	}, nil
}

// Handle produces the formatted payload to the topic.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	msg := &ckafka.Message{
		TopicPartition: ckafka.TopicPartition{
			Topic:     &h.topic,
			Partition: ckafka.PartitionAny,
		},
		Value: []byte(payload),
	}
	if err := h.producer.Produce(msg, nil); err != nil {
		return "", false, nil
	}
	h.producer.Poll(0)
	return payload, true, nil
}

// Flush forces delivery of queued messages before shutdown and returns the
// number still outstanding when the timeout expires.
func (h *Handler) Flush(timeoutMs int) int {
	return h.producer.Flush(timeoutMs)
}

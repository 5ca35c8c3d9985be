package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/croftbyte/go-fanlog/record"
	"github.com/croftbyte/go-fanlog/transport"
)

// BodyFormatter builds the request body sent for a record. The default body
// is a JSON object with the interpolated message, the data map, and a unix
// timestamp.
type BodyFormatter func(message string, rec record.Record) ([]byte, error)

// Webhook posts records to an arbitrary HTTP endpoint through the shared
// transport engine.
type Webhook struct {
	*Base
	url    string
	client *transport.Client
	body   BodyFormatter
	now    func() time.Time
}

var _ Streamable = (*Webhook)(nil)

// NewWebhook validates the URL and transport configuration and creates the
// handler.
func NewWebhook(url string, cfg transport.Config, minLevel record.Level) (*Webhook, error) {
	if !transport.ValidURL(url) {
		return nil, NewConstructionError("webhook", "invalid URL "+url, nil)
	}
	client, err := transport.New(cfg)
	if err != nil {
		return nil, NewConstructionError("webhook", "invalid transport configuration", err)
	}
	return &Webhook{
		Base:   NewBase("webhook", minLevel),
		url:    url,
		client: client,
		now:    time.Now,
	}, nil
}

// SetBodyFormatter replaces the default request body.
func (h *Webhook) SetBodyFormatter(f BodyFormatter) {
	h.body = f
}

// Handle sends the record's body to the endpoint. Transport failures are
// swallowed after the engine's retries are exhausted.
func (h *Webhook) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	rec, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	body, err := h.requestBody(rec)
	if err != nil {
		return "", false, err
	}
	if !h.client.Send(context.Background(), h.url, body) {
		return "", false, nil
	}
	return payload, true, nil
}

func (h *Webhook) requestBody(rec record.Record) ([]byte, error) {
	if h.body != nil {
		return h.body(rec.Message, rec)
	}
	return json.Marshal(map[string]any{
		"message":   rec.Message,
		"data":      rec.Data,
		"timestamp": h.now().Unix(),
	})
}

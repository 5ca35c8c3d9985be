package handler

import (
	"context"
	"strings"

	"github.com/croftbyte/go-fanlog/format"
	"github.com/croftbyte/go-fanlog/record"
	"github.com/croftbyte/go-fanlog/transport"
)

// push is the shared shape of the Slack, Teams, and Loki handlers: a
// transport client plus a service formatter whose output is both the
// returned payload and the request body.
type push struct {
	*Base
	url    string
	client *transport.Client
}

func newPush(kind, url string, cfg transport.Config, minLevel record.Level) (*push, error) {
	if !transport.ValidURL(url) {
		return nil, NewConstructionError(kind, "invalid URL "+url, nil)
	}
	client, err := transport.New(cfg)
	if err != nil {
		return nil, NewConstructionError(kind, "invalid transport configuration", err)
	}
	return &push{
		Base:   NewBase(kind, minLevel),
		url:    url,
		client: client,
	}, nil
}

// Handle posts the formatted payload to the service endpoint.
func (h *push) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}
	if !h.client.Send(context.Background(), h.url, []byte(payload)) {
		return "", false, nil
	}
	return payload, true, nil
}

// Slack posts records to a Slack incoming webhook.
type Slack struct {
	*push
}

var _ Streamable = (*Slack)(nil)

// NewSlack creates a Slack handler for the webhook URL.
func NewSlack(webhookURL string, cfg transport.Config, minLevel record.Level) (*Slack, error) {
	p, err := newPush("slack", webhookURL, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	p.SetFormatter(format.NewSlack())
	return &Slack{push: p}, nil
}

// Teams posts records to a Microsoft Teams webhook as MessageCards.
type Teams struct {
	*push
}

var _ Streamable = (*Teams)(nil)

// NewTeams creates a Teams handler for the webhook URL.
func NewTeams(webhookURL string, cfg transport.Config, minLevel record.Level) (*Teams, error) {
	p, err := newPush("teams", webhookURL, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	p.SetFormatter(format.NewTeams())
	return &Teams{push: p}, nil
}

// Loki pushes records to a Grafana Loki instance.
type Loki struct {
	*push
}

var _ Streamable = (*Loki)(nil)

// NewLoki creates a Loki handler for the base URL of the instance. The push
// endpoint path is appended here; staticLabels are attached to every
// stream.
func NewLoki(baseURL string, staticLabels map[string]string, cfg transport.Config, minLevel record.Level) (*Loki, error) {
	url := strings.TrimRight(baseURL, "/") + "/loki/api/v1/push"
	p, err := newPush("loki", url, cfg, minLevel)
	if err != nil {
		return nil, err
	}
	p.SetFormatter(format.NewLoki(staticLabels))
	return &Loki{push: p}, nil
}

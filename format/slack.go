package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/croftbyte/go-fanlog/record"
)

// Slack renders records as Slack incoming-webhook payloads with a
// level-coloured attachment.
type Slack struct {
	now func() time.Time
}

// NewSlack creates the Slack formatter.
func NewSlack() *Slack {
	return &Slack{now: time.Now}
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// slackStyle maps a level to its emoji and attachment colour.
func slackStyle(level record.Level) (emoji, color string) {
	switch level {
	case record.Emergency, record.Alert, record.Critical:
		return "rotating_light", "danger"
	case record.Error:
		return "x", "#ff0000"
	case record.Warning:
		return "warning", "warning"
	case record.Notice:
		return "speech_balloon", "#2196F3"
	case record.Info:
		return "information_source", "#2196F3"
	default:
		return "bug", "#607D8B"
	}
}

// Format renders the webhook body. A single attachment is added when the
// record carries a context or data.
func (s *Slack) Format(rec record.Record) (string, error) {
	emoji, color := slackStyle(rec.Level)

	payload := slackPayload{
		Text: fmt.Sprintf(":%s: %s", emoji, rec.Message),
	}

	if rec.Context != "" || len(rec.Data) > 0 {
		fields := make([]slackField, 0, 3)
		if rec.Context != "" {
			fields = append(fields, slackField{Title: "Context", Value: rec.Context, Short: true})
		}
		fields = append(fields, slackField{Title: "Level", Value: rec.Level.String(), Short: true})
		if len(rec.Data) > 0 {
			data, err := compactJSON(rec.Data)
			if err != nil {
				return "", err
			}
			fields = append(fields, slackField{
				Title: "Data",
				Value: "```" + data + "```",
				Short: false,
			})
		}
		payload.Attachments = []slackAttachment{{
			Color:  color,
			Fields: fields,
			Footer: "fanlog",
			Ts:     s.now().Unix(),
		}}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

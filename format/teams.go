package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/croftbyte/go-fanlog/record"
)

// Teams renders records as Microsoft Teams MessageCard payloads.
type Teams struct{}

// NewTeams creates the Teams formatter.
func NewTeams() *Teams {
	return &Teams{}
}

const (
	teamsMaxFacts    = 5
	teamsMaxValueLen = 100
	teamsSummaryLen  = 80
)

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	Facts            []teamsFact `json:"facts"`
}

type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Title      string         `json:"title"`
	Sections   []teamsSection `json:"sections"`
}

// teamsStyle maps a level to its theme colour and title emoji.
func teamsStyle(level record.Level) (color, emoji string) {
	switch level {
	case record.Emergency, record.Alert, record.Critical:
		return "FF0000", "🚨"
	case record.Error:
		return "DC3545", "❌"
	case record.Warning:
		return "FFC107", "⚠️"
	case record.Notice:
		return "17A2B8", "📢"
	case record.Info:
		return "007BFF", "ℹ️"
	default:
		return "6C757D", "🐛"
	}
}

// Format renders the MessageCard with a single section. At most five data
// entries become facts; the rest collapse into an overflow entry.
func (*Teams) Format(rec record.Record) (string, error) {
	color, emoji := teamsStyle(rec.Level)

	section := teamsSection{
		ActivityTitle: rec.Message,
		Facts: []teamsFact{
			{Name: "Level", Value: rec.Level.String()},
		},
	}
	if rec.Context != "" {
		section.ActivitySubtitle = "Context: " + rec.Context
		section.Facts = append(section.Facts, teamsFact{Name: "Context", Value: rec.Context})
	}
	if ts, ok := rec.Root("timestamp"); ok {
		section.Facts = append(section.Facts, teamsFact{Name: "Timestamp", Value: teamsValue(ts)})
	}

	keys := rec.DataKeys()
	shown := keys
	if len(shown) > teamsMaxFacts {
		shown = shown[:teamsMaxFacts]
	}
	for _, k := range shown {
		section.Facts = append(section.Facts, teamsFact{
			Name:  capitalize(k),
			Value: teamsValue(rec.Data[k]),
		})
	}
	if extra := len(keys) - teamsMaxFacts; extra > 0 {
		section.Facts = append(section.Facts, teamsFact{
			Name:  "Additional Fields",
			Value: fmt.Sprintf("+%d more…", extra),
		})
	}

	card := teamsCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		Summary:    truncate(rec.Message, teamsSummaryLen),
		ThemeColor: color,
		Title:      emoji + " " + strings.ToUpper(rec.Level.String()),
		Sections:   []teamsSection{section},
	}

	encoded, err := json.Marshal(card)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// teamsValue renders a fact value: booleans and nulls as literals, maps and
// lists as JSON, everything truncated to the fact value limit.
func teamsValue(v any) string {
	var rendered string
	switch val := v.(type) {
	case nil:
		rendered = "null"
	case bool:
		if val {
			rendered = "true"
		} else {
			rendered = "false"
		}
	case string:
		rendered = val
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			rendered = fmt.Sprintf("%v", val)
		} else {
			rendered = string(encoded)
		}
	}
	if len(rendered) > teamsMaxValueLen {
		rendered = rendered[:teamsMaxValueLen-3] + "..."
	}
	return rendered
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

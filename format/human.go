package format

import (
	"fmt"
	"strings"

	"github.com/croftbyte/go-fanlog/record"
)

// Human renders a record as multi-line indented text for consoles.
type Human struct{}

// NewHuman creates the human formatter.
func NewHuman() *Human {
	return &Human{}
}

// Format renders a header line followed by indented root fields and data
// entries. Data keys are emitted in sorted order.
func (*Human) Format(rec record.Record) (string, error) {
	var b strings.Builder

	header := strings.ToUpper(rec.Level.String())
	if rec.Context != "" {
		fmt.Fprintf(&b, "[%s] %s\n", header, rec.Context)
	} else {
		fmt.Fprintf(&b, "[%s]\n", header)
	}
	fmt.Fprintf(&b, "  %s\n", rec.Message)

	for _, f := range rec.Fields {
		fmt.Fprintf(&b, "  %s: %s\n", f.Key, humanValue(f.Value))
	}

	if len(rec.Data) > 0 {
		b.WriteString("  data:\n")
		for _, k := range rec.DataKeys() {
			fmt.Fprintf(&b, "    %s: %s\n", k, humanValue(rec.Data[k]))
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func humanValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case error:
		return val.Error()
	default:
		encoded, err := compactJSON(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return encoded
	}
}

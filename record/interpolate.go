package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Interpolate substitutes {identifier} placeholders in template with values
// from vars. Scalars substitute their string form, maps and lists their
// compact JSON encoding, and nullary callables are evaluated first. Unknown
// placeholders and braces that do not delimit an identifier are preserved
// verbatim. Substitution is single-pass: substituted text is never scanned
// again.
func Interpolate(template string, vars map[string]any) string {
	if !strings.ContainsRune(template, '{') {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			b.WriteString(template[i:])
			break
		}
		open += i
		b.WriteString(template[i:open])

		close := strings.IndexByte(template[open:], '}')
		if close < 0 {
			b.WriteString(template[open:])
			break
		}
		close += open

		name := template[open+1 : close]
		if !validIdentifier(name) {
			b.WriteByte('{')
			i = open + 1
			continue
		}

		value, ok := lookup(vars, name)
		if !ok {
			b.WriteString(template[open : close+1])
			i = close + 1
			continue
		}

		b.WriteString(stringify(value))
		i = close + 1
	}

	return b.String()
}

// validIdentifier reports whether the placeholder body is a plain
// identifier: letters, digits, underscores, and dots, non-empty.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

func lookup(vars map[string]any, name string) (any, bool) {
	if vars == nil {
		return nil, false
	}
	v, ok := vars[name]
	return v, ok
}

// stringify renders a placeholder value. Callables are evaluated, scalars
// use their natural string form, everything else is compact JSON.
func stringify(v any) string {
	v = evaluate(v)

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

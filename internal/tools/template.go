package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const cwdToken = "{{cwd}}"

// Binding is one parameter value substituted into templates.
type Binding struct {
	Name  string
	Value any
}

// Render replaces {{cwd}} with cwd and then every {{name}} token with the
// binding's string form, in binding order. Replacement is literal and values
// are inserted verbatim, so a binding named cwd also replaces any {{cwd}}
// tokens a previous value introduced. Unknown tokens are left as-is.
func Render(template, cwd string, bindings []Binding) string {
	out := strings.ReplaceAll(template, cwdToken, cwd)
	for _, b := range bindings {
		out = strings.ReplaceAll(out, "{{"+b.Name+"}}", FormatValue(b.Value))
	}
	return out
}

// FormatValue renders a scalar parameter value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ParseLogLines reads a rendered logLines value. Like a lenient integer
// parse it accepts an optional sign and leading digits and ignores the rest;
// anything that does not yield a positive count falls back to def.
func ParseLogLines(rendered string, def int) int {
	s := strings.TrimSpace(rendered)
	start := 0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		start = 1
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

package tools

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the only artifact returned to protocol callers.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// Payload is the JSON document carried in a result's text content.
type Payload struct {
	Output string `json:"output"`
}

// NewResult wraps message in an indented JSON payload.
func NewResult(message string, isError bool) Result {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(Payload{Output: message})
	return Result{
		Content: []Content{{Type: "text", Text: strings.TrimSuffix(buf.String(), "\n")}},
		IsError: isError,
	}
}

// Text returns the first text content.
func (r Result) Text() string {
	for _, c := range r.Content {
		if c.Type == "text" {
			return c.Text
		}
	}
	return ""
}

// Output decodes the payload message from the result text.
func (r Result) Output() (string, error) {
	var p Payload
	if err := json.Unmarshal([]byte(r.Text()), &p); err != nil {
		return "", err
	}
	return p.Output, nil
}

package util

import (
	"strings"
)

// TruncateBytes trims a string to maxBytes if needed.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	return input[:maxBytes], true
}

// TruncateLinesAndBytes limits lines and total byte count.
func TruncateLinesAndBytes(lines []string, maxLines int, maxBytes int) (out []string, truncated bool, byteCount int) {
	if maxLines <= 0 && maxBytes <= 0 {
		return lines, false, len(strings.Join(lines, "\n"))
	}
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			truncated = true
			break
		}
		sep := 0
		if len(out) > 0 {
			sep = 1
		}
		if maxBytes > 0 && byteCount+sep+len(line) > maxBytes {
			truncated = true
			break
		}
		byteCount += sep + len(line)
		out = append(out, line)
	}
	return out, truncated, byteCount
}

// Preview returns a short preview of text by limiting lines and bytes.
// Line endings are normalized first so pty output previews cleanly.
func Preview(text string, maxLines int, maxBytes int) string {
	text = strings.TrimSpace(NormalizeLineEndings(text))
	if text == "" {
		return ""
	}
	trimmed, _, _ := TruncateLinesAndBytes(strings.Split(text, "\n"), maxLines, maxBytes)
	return strings.Join(trimmed, "\n")
}

package util

import (
	"regexp"
	"strings"
)

// csiPattern matches color/style (m) and line-erase (K) control sequences.
var csiPattern = regexp.MustCompile("\x1b\\[[0-9;]*[mK]")

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// StripANSI removes terminal color and erase-line sequences from text.
func StripANSI(input string) string {
	return csiPattern.ReplaceAllString(input, "")
}

// NormalizeLineEndings maps \r\n and bare \r to \n.
func NormalizeLineEndings(input string) string {
	return lineEndings.Replace(input)
}

// NonBlankLines splits text into lines after normalizing line endings and
// drops lines that are empty once trimmed. Returned lines are not trimmed.
func NonBlankLines(text string) []string {
	raw := strings.Split(NormalizeLineEndings(text), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LastLines returns at most n trailing non-blank lines of text.
func LastLines(text string, n int) []string {
	lines := NonBlankLines(text)
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

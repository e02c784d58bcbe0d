package util

import (
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	input := "\x1b[1;31merror:\x1b[0m bad thing\x1b[K\nplain [not csi] text"
	out := StripANSI(input)
	if strings.Contains(out, "\x1b") {
		t.Fatalf("expected no escape characters, got %q", out)
	}
	if out != "error: bad thing\nplain [not csi] text" {
		t.Fatalf("unexpected sanitized output %q", out)
	}
}

func TestStripANSIKeepsOtherSequences(t *testing.T) {
	// cursor movement is not stripped
	input := "a\x1b[2Jb"
	if out := StripANSI(input); out != input {
		t.Fatalf("expected %q unchanged, got %q", input, out)
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	cases := map[string]string{
		"a\r\nb":     "a\nb",
		"a\rb":       "a\nb",
		"a\nb":       "a\nb",
		"a\r\r\nb":   "a\n\nb",
		"":           "",
		"\r\n\r\n\r": "\n\n\n",
	}
	for in, want := range cases {
		got := NormalizeLineEndings(in)
		if got != want {
			t.Fatalf("normalize(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeLineEndings(got); again != got {
			t.Fatalf("normalize is not idempotent for %q: %q", in, again)
		}
	}
}

func TestLastLines(t *testing.T) {
	text := "one\r\n\r\ntwo\n   \nthree\rfour\n"
	got := LastLines(text, 2)
	if strings.Join(got, "|") != "three|four" {
		t.Fatalf("unexpected last lines %v", got)
	}
	all := LastLines(text, 10)
	if len(all) != 4 {
		t.Fatalf("expected 4 non-blank lines, got %v", all)
	}
	if len(LastLines("", 10)) != 0 {
		t.Fatalf("expected no lines for empty text")
	}
}

package extract

import "slices"

// Known extractor types.
const (
	TypeGCC    = "gcc"
	TypeCustom = "custom"
)

var gccPatterns = Patterns{
	Errors:   []string{`^[^:]+:\d+:\d+:\s+error:`},
	Warnings: []string{`^[^:]+:\d+:\d+:\s+warning:`},
}

// KnownPatterns returns the predefined patterns for an extractor type.
func KnownPatterns(extractorType string) (Patterns, bool) {
	switch extractorType {
	case TypeGCC:
		return Patterns{
			Errors:   slices.Clone(gccPatterns.Errors),
			Warnings: slices.Clone(gccPatterns.Warnings),
		}, true
	default:
		return Patterns{}, false
	}
}

// ValidType reports whether extractorType is supported.
func ValidType(extractorType string) bool {
	return extractorType == TypeGCC || extractorType == TypeCustom
}

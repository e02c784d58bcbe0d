// Package extract classifies command output lines into errors and warnings.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"mcp-bridge/internal/util"
)

// ErrInvalidPattern is returned when a classification pattern does not compile.
var ErrInvalidPattern = errors.New("invalid extractor pattern")

// matchTimeout bounds a single pattern test against one line.
const matchTimeout = time.Second

// Patterns holds ordered error and warning regular expressions.
type Patterns struct {
	Errors   []string `json:"errors" yaml:"errors" mapstructure:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings" mapstructure:"warnings"`
}

// Result lists classified lines in the order they were first seen.
// Duplicates are kept.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Extractor matches lines against precompiled patterns. It is safe for
// concurrent use.
type Extractor struct {
	errors   []*regexp2.Regexp
	warnings []*regexp2.Regexp
}

// New compiles patterns. Patterns use ECMAScript syntax.
func New(p Patterns) (*Extractor, error) {
	errs, err := compileAll(p.Errors)
	if err != nil {
		return nil, err
	}
	warns, err := compileAll(p.Warnings)
	if err != nil {
		return nil, err
	}
	return &Extractor{errors: errs, warnings: warns}, nil
}

func compileAll(patterns []string) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		re.MatchTimeout = matchTimeout
		out = append(out, re)
	}
	return out, nil
}

// Extract splits output into trimmed non-blank lines and tests each line
// against the error and warning lists independently. A line matching both
// lists appears in both results.
func (e *Extractor) Extract(output string) (Result, error) {
	result := Result{Errors: []string{}, Warnings: []string{}}
	for _, line := range strings.Split(util.NormalizeLineEndings(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matched, err := firstMatch(e.errors, line)
		if err != nil {
			return Result{}, err
		}
		if matched {
			result.Errors = append(result.Errors, line)
		}
		matched, err = firstMatch(e.warnings, line)
		if err != nil {
			return Result{}, err
		}
		if matched {
			result.Warnings = append(result.Warnings, line)
		}
	}
	return result, nil
}

func firstMatch(patterns []*regexp2.Regexp, line string) (bool, error) {
	for _, re := range patterns {
		ok, err := re.MatchString(line)
		if err != nil {
			return false, fmt.Errorf("match %q: %w", re.String(), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Extract compiles patterns and classifies output in one step.
func Extract(output string, p Patterns) (Result, error) {
	ex, err := New(p)
	if err != nil {
		return Result{}, err
	}
	return ex.Extract(output)
}

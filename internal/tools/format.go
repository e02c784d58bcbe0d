package tools

import (
	"strings"

	"mcp-bridge/internal/config"
	"mcp-bridge/internal/extract"
	"mcp-bridge/internal/process"
	"mcp-bridge/internal/util"
)

// DefaultLogLines is the trailing context kept when logLines is unset.
const DefaultLogLines = 10

const (
	errorsHeader     = "=== ERRORS ==="
	warningsHeader   = "=== WARNINGS ==="
	noErrorDetails   = "Operation failed with no specific error details"
	diagnosticPrefix = "\n\nERROR: "
)

// Verdict is the formatted outcome of one invocation.
type Verdict struct {
	Message string
	IsError bool
}

// Format folds a process outcome, the classification of its output and the
// tool's policy into a verdict. IsError depends only on the terminal state
// and timeoutAsWarning; classified error lines change the message, not the
// verdict. extraction is used only when the tool formats output.
func Format(def config.ToolDefinition, outcome process.Outcome, extraction *extract.Result, logLines int) Verdict {
	if logLines <= 0 {
		logLines = DefaultLogLines
	}
	rawFailure := outcome.State != process.StateNormal
	special := def.TimeoutAsWarning() && outcome.State.IsTimeout()

	v := Verdict{IsError: rawFailure && !special}
	if def.OutputProcessing.FormatOutput {
		if extraction == nil {
			extraction = &extract.Result{}
		}
		v.Message = formatClassified(def.ResultFormat, *extraction, outcome.Output, rawFailure, logLines)
	} else {
		v.Message = formatPlain(def.ResultFormat, outcome.Output, rawFailure, special, logLines)
	}
	if outcome.Error != "" {
		v.Message += diagnosticPrefix + outcome.Error
	}
	return v
}

func formatPlain(rf config.ResultFormat, output string, rawFailure, special bool, logLines int) string {
	msg := rf.SuccessMessage
	if rawFailure {
		msg = rf.ErrorMessage
	}
	if rawFailure || special {
		if tail := util.LastLines(output, logLines); len(tail) > 0 {
			msg += ": " + strings.Join(tail, "\n")
		}
	}
	return msg
}

func formatClassified(rf config.ResultFormat, ex extract.Result, output string, rawFailure bool, logLines int) string {
	var lines []string
	if len(ex.Errors) > 0 {
		lines = append(lines, errorsHeader)
		lines = append(lines, ex.Errors...)
	}
	if len(ex.Warnings) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, warningsHeader)
		lines = append(lines, ex.Warnings...)
	}
	// nothing specific was classified, so show the tail as context
	if rawFailure && len(ex.Errors) == 0 {
		if tail := util.LastLines(output, logLines); len(tail) > 0 {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, tail...)
		}
	}

	if rawFailure || len(ex.Errors) > 0 {
		detail := noErrorDetails
		if len(lines) > 0 {
			detail = strings.Join(lines, "\n")
		}
		return rf.ErrorMessage + ": " + detail
	}
	if len(lines) > 0 {
		return rf.SuccessMessage + " with WARNING: " + strings.Join(lines, "\n")
	}
	return rf.SuccessMessage
}

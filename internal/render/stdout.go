package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"mcp-bridge/internal/events"
)

// StdoutRenderer mirrors streamed output and invocation status to a writer.
// Output chunks are always written; status lines only in verbose mode.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool

	ok   *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, verbose bool) *StdoutRenderer {
	return &StdoutRenderer{
		w:       w,
		verbose: verbose,
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.FgCyan),
	}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.OutputChunk:
		if payload, ok := event.Payload.(events.OutputChunkPayload); ok {
			fmt.Fprint(r.w, payload.Chunk)
		}
	case events.InvocationStarted:
		if payload, ok := event.Payload.(events.InvocationStartedPayload); ok {
			if !r.verbose {
				return
			}
			r.dim.Fprintf(r.w, "tool: %s start [%s]\n", payload.ToolName, shortID(payload.InvocationID))
			fmt.Fprintf(r.w, "cwd: %s\ncommand: %s\n", payload.Cwd, payload.Command)
		}
	case events.InvocationFinished:
		if payload, ok := event.Payload.(events.InvocationFinishedPayload); ok {
			if !r.verbose {
				return
			}
			status, c := "ok", r.ok
			switch {
			case payload.IsError:
				status, c = "err", r.fail
			case payload.State != "normal":
				status, c = "warn", r.warn
			}
			c.Fprintf(r.w, "tool: %s %s (%s, %dms, %d lines, %d bytes)\n", payload.ToolName, status, payload.State, payload.DurationMs, payload.LineCount, payload.ByteCount)
			if payload.Preview != "" {
				fmt.Fprintln(r.w, "preview:")
				for _, line := range strings.Split(payload.Preview, "\n") {
					fmt.Fprintf(r.w, "  %s\n", line)
				}
			}
		}
	case events.InvocationFailed:
		if payload, ok := event.Payload.(events.InvocationFailedPayload); ok {
			r.fail.Fprintf(r.w, "\nError: %s: %s\n", payload.ToolName, payload.Message)
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcp-bridge/internal/config"
	"mcp-bridge/internal/events"
	"mcp-bridge/internal/extract"
	"mcp-bridge/internal/process"
	"mcp-bridge/internal/render"
	"mcp-bridge/internal/util"
)

const (
	previewLines = 5
	previewBytes = 512
)

// Executor runs one configured tool. It is safe for concurrent use; every
// Execute call gets its own supervisor run.
type Executor struct {
	name      string
	def       config.ToolDefinition
	cwd       string
	shell     string
	extractor *extract.Extractor
	renderer  render.Renderer
	logger    *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithShell overrides the shell used to run commands.
func WithShell(shell string) ExecutorOption {
	return func(e *Executor) { e.shell = shell }
}

// WithRenderer receives invocation and output events.
func WithRenderer(r render.Renderer) ExecutorOption {
	return func(e *Executor) { e.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor builds an executor for def. cwd is the server working
// directory substituted for {{cwd}}.
func NewExecutor(name string, def config.ToolDefinition, cwd string, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		name:   name,
		def:    def,
		cwd:    cwd,
		shell:  process.DefaultShell,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if def.OutputProcessing.FormatOutput {
		ex, err := extract.New(def.OutputProcessing.Extractor.Patterns)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		e.extractor = ex
	}
	return e, nil
}

// Name returns the configured tool name.
func (e *Executor) Name() string { return e.name }

// Description returns the tool description shown to callers.
func (e *Executor) Description() string { return e.def.Description }

// Parameters returns the declared parameters in declaration order.
func (e *Executor) Parameters() []config.ToolParameter { return e.def.Parameters }

// Schema returns a JSON schema for the tool arguments. Parameters without a
// default are required.
func (e *Executor) Schema() map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, p := range e.def.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		} else {
			required = append(required, p.Name)
		}
		properties[p.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Bindings orders parameter values for rendering: declared parameters first
// with defaults filled in, then any extra caller keys sorted by name.
func (e *Executor) Bindings(params map[string]any) []Binding {
	bindings := make([]Binding, 0, len(params)+len(e.def.Parameters))
	declared := make(map[string]struct{}, len(e.def.Parameters))
	for _, p := range e.def.Parameters {
		declared[p.Name] = struct{}{}
		if v, ok := params[p.Name]; ok {
			bindings = append(bindings, Binding{Name: p.Name, Value: v})
		} else if p.Default != nil {
			bindings = append(bindings, Binding{Name: p.Name, Value: p.Default})
		}
	}
	extra := make([]string, 0, len(params))
	for k := range params {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		bindings = append(bindings, Binding{Name: k, Value: params[k]})
	}
	return bindings
}

// Execute runs the tool with params and formats the result. Process
// failures and timeouts are reported through the Result; an error is
// returned only when the invocation could not be classified.
func (e *Executor) Execute(ctx context.Context, params map[string]any) (Result, error) {
	id := uuid.NewString()
	started := time.Now()
	bindings := e.Bindings(params)
	command := Render(e.def.Command, e.cwd, bindings)
	cwd := Render(e.def.Cwd, e.cwd, bindings)

	redacted := util.RedactSecrets(command)
	e.emit(events.InvocationStarted, events.InvocationStartedPayload{
		InvocationID: id,
		ToolName:     e.name,
		Command:      redacted,
		Cwd:          cwd,
		StartedAt:    started,
	})
	log := e.logger.With(zap.String("tool", e.name), zap.String("invocation_id", id))
	log.Info("executing tool",
		zap.String("command", redacted),
		zap.String("cwd", cwd),
		zap.Strings("params", util.RedactParams(params)),
	)

	supervisor := process.NewSupervisor(
		process.WithShell(e.shell),
		process.WithLogger(log),
		process.WithSink(func(chunk string) {
			e.emit(events.OutputChunk, events.OutputChunkPayload{InvocationID: id, ToolName: e.name, Chunk: chunk})
		}),
	)
	outcome := supervisor.Execute(ctx, process.Request{
		Command:         command,
		Cwd:             cwd,
		StreamOutput:    e.def.StreamOutput,
		InactiveTimeout: time.Duration(e.def.Timeout.Inactive) * time.Millisecond,
		TotalTimeout:    time.Duration(e.def.Timeout.Total) * time.Millisecond,
	})

	var extraction *extract.Result
	if e.extractor != nil {
		res, err := e.extractor.Extract(outcome.Output)
		if err != nil {
			e.emit(events.InvocationFailed, events.InvocationFailedPayload{InvocationID: id, ToolName: e.name, Message: err.Error()})
			log.Error("output classification failed", zap.Error(err))
			return Result{}, fmt.Errorf("classify output of %s: %w", e.name, err)
		}
		extraction = &res
	}

	logLines := ParseLogLines(Render(e.def.OutputProcessing.LogLines, e.cwd, bindings), DefaultLogLines)
	verdict := Format(e.def, outcome, extraction, logLines)
	result := NewResult(verdict.Message, verdict.IsError)

	clean := util.NormalizeLineEndings(outcome.Output)
	duration := time.Since(started)
	e.emit(events.InvocationFinished, events.InvocationFinishedPayload{
		InvocationID: id,
		ToolName:     e.name,
		State:        outcome.State.String(),
		IsError:      verdict.IsError,
		Preview:      util.Preview(clean, previewLines, previewBytes),
		LineCount:    len(util.NonBlankLines(clean)),
		ByteCount:    len(clean),
		DurationMs:   duration.Milliseconds(),
	})
	log.Info("tool finished",
		zap.Stringer("state", outcome.State),
		zap.Int("exit_code", outcome.ExitCode),
		zap.Bool("is_error", verdict.IsError),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (e *Executor) emit(t events.Type, payload any) {
	if e.renderer == nil {
		return
	}
	e.renderer.Emit(events.New(t, payload))
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"

	"mcp-bridge/internal/config"
)

// ErrUnknownTool is returned when a call names a tool that is not configured.
var ErrUnknownTool = errors.New("unknown tool")

// Registry stores available tools.
type Registry struct {
	tools map[string]*Executor
}

// NewRegistry builds an executor for every configured tool.
func NewRegistry(defs config.Tools, cwd string, opts ...ExecutorOption) (*Registry, error) {
	reg := &Registry{tools: make(map[string]*Executor, len(defs))}
	for _, name := range defs.Names() {
		exec, err := NewExecutor(name, defs[name], cwd, opts...)
		if err != nil {
			return nil, err
		}
		reg.tools[name] = exec
	}
	return reg, nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Executor, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, params)
}

// OpenAITools converts tool definitions to OpenAI function tool schema.
func (r *Registry) OpenAITools() []openai.ChatCompletionToolUnionParam {
	var defs []openai.ChatCompletionToolUnionParam
	for _, name := range r.Names() {
		tool := r.tools[name]
		defs = append(defs, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name(),
					Description: param.NewOpt(tool.Description()),
					Parameters:  tool.Schema(),
				},
			},
		})
	}
	return defs
}

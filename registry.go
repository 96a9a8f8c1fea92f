package expenseagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
)

// ToolRegistry is a closed set of tools keyed by name. Arguments are checked
// against each tool's schema before the tool runs.
type ToolRegistry struct {
	tools    map[string]tools.Tool
	resolved map[string]*jsonschema.Resolved
	defs     []llm.Tool
}

func NewToolRegistry(ts []tools.Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools:    make(map[string]tools.Tool, len(ts)),
		resolved: make(map[string]*jsonschema.Resolved, len(ts)),
		defs:     make([]llm.Tool, 0, len(ts)),
	}
	for _, tool := range ts {
		name := tool.Name()
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		resolved, err := tool.Parameters().Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("tool %s: failed to resolve schema: %w", name, err)
		}
		params, err := tools.SchemaMap(tool.Parameters())
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		r.tools[name] = tool
		r.resolved[name] = resolved
		r.defs = append(r.defs, llm.Tool{
			Name:        name,
			Description: tool.Description(),
			Parameters:  params,
		})
	}
	return r, nil
}

// Definitions returns the tool declarations sent to the model.
func (r *ToolRegistry) Definitions() []llm.Tool {
	return r.defs
}

// Lookup returns the tool registered under name.
func (r *ToolRegistry) Lookup(name string) (tools.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Dispatch runs one tool call. Unknown tools and arguments that fail schema
// validation become error results for the model to read; only a tool that
// cannot run at all returns an error.
func (r *ToolRegistry) Dispatch(ctx context.Context, call *llm.ToolCallPart) (tools.Result, error) {
	tool, ok := r.tools[call.ToolName]
	if !ok {
		return errorObservation(fmt.Sprintf("Error: la herramienta %q no existe.", call.ToolName)), nil
	}

	args := call.Args
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(args, &instance); err != nil {
		return errorObservation(fmt.Sprintf("Error: argumentos inválidos para %s: %v", call.ToolName, err)), nil
	}
	if err := r.resolved[call.ToolName].Validate(instance); err != nil {
		return errorObservation(fmt.Sprintf("Error: argumentos inválidos para %s: %v", call.ToolName, err)), nil
	}

	return tool.Execute(ctx, args)
}

func errorObservation(text string) tools.Result {
	return tools.Result{Content: []llm.Part{llm.NewTextPart(text)}, IsError: true}
}

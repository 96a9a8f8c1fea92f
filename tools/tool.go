// Package tools implements the capabilities the model can invoke: recording
// an expense, querying the ledger with code and charting it with code.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/hoangvvo/expense-agent/llm"
)

// Tool is a named capability exposed to the model.
type Tool interface {
	// Name of the tool, unique within a registry.
	Name() string
	// A description instructing the model how and when to use the tool.
	Description() string
	// The JSON schema of the arguments. The type is always "object".
	Parameters() *jsonschema.Schema
	// Execute runs the tool with arguments that already passed schema
	// validation.
	//
	// Domain failures (bad input, failing snippets, missing data) come back as
	// a Result the model can read. A returned error means the tool itself
	// could not run, such as a ledger I/O failure.
	Execute(ctx context.Context, params json.RawMessage) (Result, error)
}

type Result struct {
	Content []llm.Part `json:"content"`
	IsError bool       `json:"is_error"`
}

// Text returns the concatenated text content of the result.
func (r Result) Text() string {
	return llm.Text(r.Content)
}

func textResult(text string) Result {
	return Result{Content: []llm.Part{llm.NewTextPart(text)}}
}

func errorResult(text string) Result {
	return Result{Content: []llm.Part{llm.NewTextPart(text)}, IsError: true}
}

// typedTool decodes its arguments into P before calling fn.
type typedTool[P any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	fn          func(ctx context.Context, params P) (Result, error)
}

func newTypedTool[P any](name, description string, fn func(context.Context, P) (Result, error)) *typedTool[P] {
	schema, err := jsonschema.For[P](nil)
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %s: %v", name, err))
	}
	return &typedTool[P]{name: name, description: description, schema: schema, fn: fn}
}

func (t *typedTool[P]) Name() string                   { return t.name }
func (t *typedTool[P]) Description() string            { return t.description }
func (t *typedTool[P]) Parameters() *jsonschema.Schema { return t.schema }

func (t *typedTool[P]) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	var p P
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult(fmt.Sprintf("Error: argumentos inválidos para %s: %v", t.name, err)), nil
	}
	return t.fn(ctx, p)
}

// SchemaMap converts a schema into the provider-neutral map form sent to the
// model.
func SchemaMap(schema *jsonschema.Schema) (llm.JSONSchema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m llm.JSONSchema
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return m, nil
}

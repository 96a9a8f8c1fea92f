// Package expenseagent is a conversational expense assistant. An Agent takes
// a user utterance, lets a language model call the expense tools until it
// produces a plain answer, and returns the updated conversation.
package expenseagent

import (
	"time"

	"github.com/hoangvvo/expense-agent/llm"
)

const DefaultMaxTurns = 10

type Agent struct {
	Name     string
	params   *AgentParams
	registry *ToolRegistry
}

// NewAgent creates a new agent with given name, language model, and options.
//
// Defaults:
// - `instructions`: empty
// - `tools`: empty
// - `maxTurns`: 10
// - `temperature`: nil
// - `observer`: NoopObserver
func NewAgent(name string, model llm.LanguageModel, options ...AgentParamsOption) (*Agent, error) {
	params := &AgentParams{
		Name:     name,
		Model:    model,
		MaxTurns: DefaultMaxTurns,
		Observer: NoopObserver{},
		Now:      time.Now,
	}
	for _, option := range options {
		option(params)
	}
	if params.Observer == nil {
		params.Observer = NoopObserver{}
	}
	if params.Now == nil {
		params.Now = time.Now
	}

	reg, err := NewToolRegistry(params.Tools)
	if err != nil {
		return nil, err
	}
	return &Agent{Name: name, params: params, registry: reg}, nil
}

// Response is the outcome of one user turn.
type Response struct {
	// Content is the final assistant message.
	Content []llm.Part
	// Artifact is the chart produced during the turn, if any.
	Artifact string
	// Steps is the number of model calls the turn took.
	Steps uint
	Usage llm.ModelUsage
}

// Text returns the text of the final assistant message.
func (r *Response) Text() string {
	return llm.Text(r.Content)
}

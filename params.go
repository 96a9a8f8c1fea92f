package expenseagent

import (
	"time"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
)

// Parameters required to create a new agent.
type AgentParams struct {
	Name string
	// The language model that reasons over the conversation.
	Model llm.LanguageModel
	// Instructions joined into the system prompt, rendered again on every
	// model call so the current date stays fresh.
	Instructions []InstructionParam
	// The closed set of tools the model may call.
	Tools []tools.Tool
	// Max number of model calls per user turn, to protect against loops.
	MaxTurns uint
	// Amount of randomness injected into the response.
	Temperature *float64
	// The maximum number of tokens per model response.
	MaxTokens *int64
	// Observer is notified as the turn progresses.
	Observer Observer
	// Now is the clock used to render instructions.
	Now func() time.Time
}

type AgentParamsOption func(*AgentParams)

// WithInstructions sets the instructions that make up the system prompt.
func WithInstructions(instructions ...InstructionParam) AgentParamsOption {
	return func(p *AgentParams) {
		p.Instructions = instructions
	}
}

// WithTools sets the tools the model may call.
func WithTools(tools ...tools.Tool) AgentParamsOption {
	return func(p *AgentParams) {
		p.Tools = tools
	}
}

// WithMaxTurns sets the max number of model calls per user turn.
func WithMaxTurns(maxTurns uint) AgentParamsOption {
	return func(p *AgentParams) {
		p.MaxTurns = maxTurns
	}
}

// WithTemperature sets the sampling temperature for the model.
func WithTemperature(temperature float64) AgentParamsOption {
	return func(p *AgentParams) {
		p.Temperature = &temperature
	}
}

// WithMaxTokens caps the length of each model response.
func WithMaxTokens(maxTokens int64) AgentParamsOption {
	return func(p *AgentParams) {
		p.MaxTokens = &maxTokens
	}
}

// WithObserver sets the observer notified during each turn.
func WithObserver(observer Observer) AgentParamsOption {
	return func(p *AgentParams) {
		p.Observer = observer
	}
}

// WithClock replaces time.Now when rendering instructions.
func WithClock(now func() time.Time) AgentParamsOption {
	return func(p *AgentParams) {
		p.Now = now
	}
}

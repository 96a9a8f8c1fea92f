package expenseagent

import (
	"context"
	"slices"
	"time"

	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
)

type loopState int

const (
	stateReason loopState = iota
	stateDispatchTool
	statePostprocess
	stateDone
)

// turn holds the working state of one user turn.
type turn struct {
	conv     Conversation
	start    int
	steps    uint
	usage    llm.ModelUsage
	calls    []*llm.ToolCallPart
	response []llm.Part
}

// Run appends input to the conversation and loops until the model answers
// without calling tools.
//
// process flow:
//
//  1. REASON: call the model with the system prompt, history and tool
//     schemas. No tool calls -> DONE. Otherwise -> DISPATCH_TOOL.
//
//  2. DISPATCH_TOOL: execute every tool call in order and append the results
//     as one tool message. -> POSTPROCESS.
//
//  3. POSTPROCESS: refresh LastArtifact from this turn's chart results.
//     -> REASON.
//
// On error the returned conversation is conv, unchanged.
func (a *Agent) Run(ctx context.Context, conv Conversation, input string) (Conversation, *Response, error) {
	observer := a.params.Observer
	span, ctx := newTurnSpan(ctx, a.Name)
	observer.OnTurnStart(ctx, input)

	t := &turn{
		conv: Conversation{
			Messages:     slices.Clone(conv.Messages),
			LastArtifact: conv.LastArtifact,
		},
		start: len(conv.Messages),
	}
	t.conv.Messages = append(t.conv.Messages, llm.NewUserMessage(llm.NewTextPart(input)))

	if err := a.loop(ctx, t); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("turn rolled back")
		span.onError(err)
		observer.OnTurnEnd(ctx, nil, err)
		return conv, nil, err
	}

	response := &Response{
		Content:  t.response,
		Artifact: t.conv.LastArtifact,
		Steps:    t.steps,
		Usage:    t.usage,
	}
	span.onEnd(response)
	observer.OnTurnEnd(ctx, response, nil)
	return t.conv, response, nil
}

func (a *Agent) loop(ctx context.Context, t *turn) error {
	for state := stateReason; state != stateDone; {
		var err error
		switch state {
		case stateReason:
			state, err = a.reason(ctx, t)
		case stateDispatchTool:
			state, err = a.dispatchTools(ctx, t)
		case statePostprocess:
			t.conv.LastArtifact = extractArtifact(t.conv.Messages[t.start:])
			state = stateReason
		default:
			return NewInvariantError("unknown loop state")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) reason(ctx context.Context, t *turn) (loopState, error) {
	t.steps++
	if t.steps > a.params.MaxTurns {
		return stateDone, NewMaxTurnsExceededError(a.params.MaxTurns)
	}

	response, err := traceGenerate(ctx, a.params.Model, a.turnInput(t))
	if err != nil {
		return stateDone, NewLanguageModelError(err)
	}
	if len(response.Content) == 0 {
		return stateDone, NewInvariantError("model returned no content")
	}
	t.usage.Add(response.Usage)
	t.conv.Messages = append(t.conv.Messages, llm.NewAssistantMessage(response.Content...))
	a.params.Observer.OnModelResponse(ctx, t.steps, response)

	t.calls = llm.ToolCalls(response.Content)
	if len(t.calls) == 0 {
		t.response = response.Content
		return stateDone, nil
	}
	return stateDispatchTool, nil
}

func (a *Agent) dispatchTools(ctx context.Context, t *turn) (loopState, error) {
	parts := make([]llm.Part, 0, len(t.calls))
	for _, call := range t.calls {
		description := ""
		if tool, ok := a.registry.Lookup(call.ToolName); ok {
			description = tool.Description()
		}

		started := time.Now()
		result, err := startActiveToolSpan(ctx, call, description, func(ctx context.Context) (tools.Result, error) {
			return a.registry.Dispatch(ctx, call)
		})
		if err != nil {
			return stateDone, NewToolExecutionError(call.ToolName, err)
		}
		a.params.Observer.OnToolResult(ctx, call, result, time.Since(started))

		parts = append(parts, llm.NewToolResultPart(call.ToolCallID, call.ToolName, result.Content, result.IsError))
	}
	t.conv.Messages = append(t.conv.Messages, llm.NewToolMessage(parts...))
	t.calls = nil
	return statePostprocess, nil
}

func (a *Agent) turnInput(t *turn) *llm.LanguageModelInput {
	input := &llm.LanguageModelInput{
		Messages:    t.conv.Messages,
		Tools:       a.registry.Definitions(),
		Temperature: a.params.Temperature,
		MaxTokens:   a.params.MaxTokens,
	}
	if prompt := getPrompt(a.params.Instructions, a.params.Now()); prompt != "" {
		input.SystemPrompt = &prompt
	}
	return input
}

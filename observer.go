package expenseagent

import (
	"context"
	"time"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/rs/zerolog"
)

// Observer is notified as a user turn moves through the loop. Implementations
// must not retain the values they are given.
type Observer interface {
	OnTurnStart(ctx context.Context, input string)
	OnModelResponse(ctx context.Context, step uint, response *llm.ModelResponse)
	OnToolResult(ctx context.Context, call *llm.ToolCallPart, result tools.Result, elapsed time.Duration)
	OnTurnEnd(ctx context.Context, response *Response, err error)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) OnTurnStart(context.Context, string)                                          {}
func (NoopObserver) OnModelResponse(context.Context, uint, *llm.ModelResponse)                    {}
func (NoopObserver) OnToolResult(context.Context, *llm.ToolCallPart, tools.Result, time.Duration) {}
func (NoopObserver) OnTurnEnd(context.Context, *Response, error)                                  {}

// LogObserver writes turn progress to a zerolog logger.
type LogObserver struct {
	log zerolog.Logger
}

func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnTurnStart(_ context.Context, input string) {
	o.log.Debug().Int("input_len", len(input)).Msg("turn started")
}

func (o *LogObserver) OnModelResponse(_ context.Context, step uint, response *llm.ModelResponse) {
	ev := o.log.Debug().Uint("step", step).Int("tool_calls", len(llm.ToolCalls(response.Content)))
	if response.Usage != nil {
		ev = ev.Int("input_tokens", response.Usage.InputTokens).Int("output_tokens", response.Usage.OutputTokens)
	}
	ev.Msg("model responded")
}

func (o *LogObserver) OnToolResult(_ context.Context, call *llm.ToolCallPart, result tools.Result, elapsed time.Duration) {
	ev := o.log.Info()
	if result.IsError {
		ev = o.log.Warn().Str("observation", result.Text())
	}
	ev.Str("tool", call.ToolName).Str("call_id", call.ToolCallID).Dur("elapsed", elapsed).Msg("tool executed")
}

func (o *LogObserver) OnTurnEnd(_ context.Context, response *Response, err error) {
	if err != nil {
		o.log.Error().Err(err).Msg("turn failed")
		return
	}
	o.log.Debug().
		Uint("steps", response.Steps).
		Str("artifact", response.Artifact).
		Int("input_tokens", response.Usage.InputTokens).
		Int("output_tokens", response.Usage.OutputTokens).
		Msg("turn finished")
}

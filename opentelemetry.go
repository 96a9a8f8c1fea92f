package expenseagent

import (
	"context"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolved lazily so callers can install a tracer provider first.
var tracer = otel.Tracer("github.com/hoangvvo/expense-agent")

// turnSpan covers one user turn.
type turnSpan struct {
	agentName string
	span      trace.Span
}

func newTurnSpan(ctx context.Context, agentName string) (*turnSpan, context.Context) {
	ctx, span := tracer.Start(ctx, "expense_agent.turn")
	return &turnSpan{agentName: agentName, span: span}, ctx
}

func (s *turnSpan) onEnd(response *Response) {
	s.span.SetAttributes(
		attribute.String("gen_ai.operation.name", "invoke_agent"),
		attribute.String("gen_ai.agent.name", s.agentName),
		attribute.Int64("gen_ai.usage.input_tokens", int64(response.Usage.InputTokens)),
		attribute.Int64("gen_ai.usage.output_tokens", int64(response.Usage.OutputTokens)),
		attribute.Int64("expense_agent.steps", int64(response.Steps)),
	)
	if response.Artifact != "" {
		s.span.SetAttributes(attribute.String("expense_agent.artifact", response.Artifact))
	}
	s.span.End()
}

func (s *turnSpan) onError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.span.End()
}

// traceGenerate wraps one model call in a chat span.
func traceGenerate(ctx context.Context, model llm.LanguageModel, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	ctx, span := tracer.Start(ctx, "chat "+model.ModelID())
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "chat"),
		attribute.String("gen_ai.system", string(model.Provider())),
		attribute.String("gen_ai.request.model", model.ModelID()),
	)
	if input.Temperature != nil {
		span.SetAttributes(attribute.Float64("gen_ai.request.temperature", *input.Temperature))
	}

	response, err := model.Generate(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if response.Usage != nil {
		span.SetAttributes(
			attribute.Int64("gen_ai.usage.input_tokens", int64(response.Usage.InputTokens)),
			attribute.Int64("gen_ai.usage.output_tokens", int64(response.Usage.OutputTokens)),
		)
	}
	return response, nil
}

// startActiveToolSpan wraps one tool execution.
func startActiveToolSpan(
	ctx context.Context,
	call *llm.ToolCallPart,
	toolDescription string,
	fn func(context.Context) (tools.Result, error),
) (tools.Result, error) {
	spanCtx, span := tracer.Start(ctx, "execute_tool "+call.ToolName)
	defer func() {
		span.SetAttributes(
			attribute.String("gen_ai.operation.name", "execute_tool"),
			attribute.String("gen_ai.tool.call.id", call.ToolCallID),
			attribute.String("gen_ai.tool.description", toolDescription),
			attribute.String("gen_ai.tool.name", call.ToolName),
			attribute.String("gen_ai.tool.type", "function"),
		)
		span.End()
	}()

	res, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return tools.Result{}, err
	}
	if res.IsError {
		span.SetStatus(codes.Error, res.Text())
	}
	return res, nil
}

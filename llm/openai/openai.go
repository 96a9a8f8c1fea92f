// Package openai implements llm.LanguageModel with the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/sashabaranov/go-openai"
)

const Provider llm.ProviderName = "openai"

// chatCompleter is the subset of *openai.Client used by OpenAIChatModel.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIChatModelOptions struct {
	APIKey string
	// BaseURL allows OpenAI compatible servers.
	BaseURL string
}

type OpenAIChatModel struct {
	modelID string
	client  chatCompleter
}

func NewOpenAIChatModel(modelID string, options OpenAIChatModelOptions) (*OpenAIChatModel, error) {
	if options.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	config := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}
	return &OpenAIChatModel{
		modelID: modelID,
		client:  openai.NewClientWithConfig(config),
	}, nil
}

func (m *OpenAIChatModel) Provider() llm.ProviderName {
	return Provider
}

func (m *OpenAIChatModel) ModelID() string {
	return m.modelID
}

func (m *OpenAIChatModel) Generate(ctx context.Context, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	request, err := convertToChatCompletionRequest(m.modelID, input)
	if err != nil {
		return nil, err
	}

	response, err := m.client.CreateChatCompletion(ctx, request)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, llm.NewStatusCodeError(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, llm.NewTransportError(err)
	}

	if len(response.Choices) == 0 {
		return nil, llm.NewInvariantError(string(Provider), "no choices returned")
	}

	choice := response.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, llm.NewRefusalError("content filtered")
	}

	return &llm.ModelResponse{
		Content: mapOpenAIMessage(choice.Message),
		Usage: &llm.ModelUsage{
			InputTokens:  response.Usage.PromptTokens,
			OutputTokens: response.Usage.CompletionTokens,
		},
	}, nil
}

func convertToChatCompletionRequest(modelID string, input *llm.LanguageModelInput) (openai.ChatCompletionRequest, error) {
	request := openai.ChatCompletionRequest{Model: modelID}

	if input.SystemPrompt != nil {
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: *input.SystemPrompt,
		})
	}

	for _, message := range input.Messages {
		converted, err := convertToOpenAIMessages(message)
		if err != nil {
			return request, err
		}
		request.Messages = append(request.Messages, converted...)
	}

	for _, tool := range input.Tools {
		request.Tools = append(request.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  map[string]any(tool.Parameters),
			},
		})
	}

	if input.Temperature != nil {
		request.Temperature = float32(*input.Temperature)
	}
	if input.MaxTokens != nil {
		request.MaxTokens = int(*input.MaxTokens)
	}

	return request, nil
}

// convertToOpenAIMessages maps one message to one or more chat messages.
// A tool message carrying several results becomes one "tool" message per result.
func convertToOpenAIMessages(message llm.Message) ([]openai.ChatCompletionMessage, error) {
	switch {
	case message.UserMessage != nil:
		return []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: llm.Text(message.UserMessage.Content),
		}}, nil

	case message.AssistantMessage != nil:
		out := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: llm.Text(message.AssistantMessage.Content),
		}
		for _, call := range llm.ToolCalls(message.AssistantMessage.Content) {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   call.ToolCallID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.ToolName,
					Arguments: string(call.Args),
				},
			})
		}
		return []openai.ChatCompletionMessage{out}, nil

	case message.ToolMessage != nil:
		var out []openai.ChatCompletionMessage
		for _, part := range message.ToolMessage.Content {
			if part.ToolResultPart == nil {
				return nil, llm.NewInvalidInputError("tool message must only contain tool results")
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Name:       part.ToolResultPart.ToolName,
				ToolCallID: part.ToolResultPart.ToolCallID,
				Content:    llm.Text(part.ToolResultPart.Content),
			})
		}
		return out, nil
	}
	return nil, llm.NewInvalidInputError(fmt.Sprintf("unknown message role %q", message.Role()))
}

func mapOpenAIMessage(message openai.ChatCompletionMessage) []llm.Part {
	var parts []llm.Part
	if message.Content != "" {
		parts = append(parts, llm.NewTextPart(message.Content))
	}
	for _, call := range message.ToolCalls {
		args := json.RawMessage(call.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		parts = append(parts, llm.NewToolCallPart(call.ID, call.Function.Name, args))
	}
	return parts
}

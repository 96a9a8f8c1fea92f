// Package google implements llm.LanguageModel on top of the Gemini API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hoangvvo/expense-agent/llm"
	"google.golang.org/genai"
)

const Provider llm.ProviderName = "google"

// contentGenerator is the subset of *genai.Models used by GoogleModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GoogleModelOptions struct {
	APIKey string
	// APIVersion defaults to the SDK default when empty.
	APIVersion string
}

type GoogleModel struct {
	modelID string
	models  contentGenerator
}

func NewGoogleModel(ctx context.Context, modelID string, options GoogleModelOptions) (*GoogleModel, error) {
	if options.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      options.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: options.APIVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("google: create genai client: %w", err)
	}
	return &GoogleModel{modelID: modelID, models: client.Models}, nil
}

func (m *GoogleModel) Provider() llm.ProviderName {
	return Provider
}

func (m *GoogleModel) ModelID() string {
	return m.modelID
}

func (m *GoogleModel) Generate(ctx context.Context, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	contents, err := convertToGoogleContents(input.Messages)
	if err != nil {
		return nil, err
	}

	response, err := m.models.GenerateContent(ctx, m.modelID, contents, convertToGenerateContentConfig(input))
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, llm.NewStatusCodeError(apiErr.Code, apiErr.Message)
		}
		return nil, llm.NewTransportError(err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return nil, llm.NewRefusalError(string(response.PromptFeedback.BlockReason))
		}
		return nil, llm.NewInvariantError(string(Provider), "no candidates returned")
	}

	content, err := mapGoogleContent(response.Candidates[0].Content.Parts)
	if err != nil {
		return nil, err
	}

	return &llm.ModelResponse{
		Content: content,
		Usage:   mapGoogleUsageMetadata(response.UsageMetadata),
	}, nil
}

func convertToGenerateContentConfig(input *llm.LanguageModelInput) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if input.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*input.Temperature))
	}
	if input.MaxTokens != nil {
		config.MaxOutputTokens = int32(*input.MaxTokens)
	}

	if input.SystemPrompt != nil {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: *input.SystemPrompt}},
		}
	}

	if len(input.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(input.Tools))
		for _, tool := range input.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: map[string]any(tool.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return config
}

func convertToGoogleContents(messages []llm.Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		var (
			role  string
			parts []llm.Part
		)
		switch {
		case message.UserMessage != nil:
			role, parts = "user", message.UserMessage.Content
		case message.AssistantMessage != nil:
			role, parts = "model", message.AssistantMessage.Content
		case message.ToolMessage != nil:
			role, parts = "user", message.ToolMessage.Content
		default:
			return nil, llm.NewInvalidInputError("message has no content")
		}

		googleParts := make([]*genai.Part, 0, len(parts))
		for _, part := range parts {
			converted, err := convertToGooglePart(part)
			if err != nil {
				return nil, err
			}
			if converted != nil {
				googleParts = append(googleParts, converted)
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: googleParts})
	}
	return contents, nil
}

func convertToGooglePart(part llm.Part) (*genai.Part, error) {
	switch {
	case part.TextPart != nil:
		return &genai.Part{Text: part.TextPart.Text}, nil
	case part.ImagePart != nil:
		// Images are only produced for MCP clients and are not sent back to Gemini.
		return nil, nil
	case part.ToolCallPart != nil:
		var args map[string]any
		if len(part.ToolCallPart.Args) > 0 {
			if err := json.Unmarshal(part.ToolCallPart.Args, &args); err != nil {
				return nil, llm.NewInvalidInputError(fmt.Sprintf("tool call %s has invalid args: %v", part.ToolCallPart.ToolName, err))
			}
		}
		return &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   part.ToolCallPart.ToolCallID,
				Name: part.ToolCallPart.ToolName,
				Args: args,
			},
			ThoughtSignature: part.ToolCallPart.Signature,
		}, nil
	case part.ToolResultPart != nil:
		// Use "output" key to specify function output and "error" key to specify
		// error details, as per Google API specification
		key := "output"
		if part.ToolResultPart.IsError {
			key = "error"
		}
		return &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       part.ToolResultPart.ToolCallID,
				Name:     part.ToolResultPart.ToolName,
				Response: map[string]any{key: llm.Text(part.ToolResultPart.Content)},
			},
		}, nil
	}
	return nil, llm.NewInvalidInputError("part has no content")
}

func mapGoogleContent(parts []*genai.Part) ([]llm.Part, error) {
	var result []llm.Part

	for _, part := range parts {
		if part == nil || part.Thought {
			continue
		}

		if part.FunctionCall != nil {
			if part.FunctionCall.Name == "" {
				return nil, llm.NewInvariantError(string(Provider), "function call name is missing")
			}
			toolCallID := part.FunctionCall.ID
			if toolCallID == "" {
				toolCallID = "call_" + uuid.NewString()
			}
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, llm.NewInvariantError(string(Provider), fmt.Sprintf("marshal function call args: %v", err))
			}
			toolCall := llm.NewToolCallPart(toolCallID, part.FunctionCall.Name, json.RawMessage(args))
			toolCall.ToolCallPart.Signature = part.ThoughtSignature
			result = append(result, toolCall)
			continue
		}

		if part.Text != "" {
			result = append(result, llm.NewTextPart(part.Text))
		}
	}

	return result, nil
}

func mapGoogleUsageMetadata(usage *genai.GenerateContentResponseUsageMetadata) *llm.ModelUsage {
	if usage == nil {
		return nil
	}
	return &llm.ModelUsage{
		InputTokens:  int(usage.PromptTokenCount),
		OutputTokens: int(usage.CandidatesTokenCount),
	}
}

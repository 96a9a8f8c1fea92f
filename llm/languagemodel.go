package llm

import "context"

type ProviderName string

// LanguageModel is the reasoning service: given the conversation and the tool
// schemas it answers with text, tool calls, or both.
type LanguageModel interface {
	Provider() ProviderName
	ModelID() string
	Generate(ctx context.Context, input *LanguageModelInput) (*ModelResponse, error)
}

// Package llmtest provides a scripted language model for tests.
package llmtest

import (
	"context"
	"errors"

	"github.com/hoangvvo/expense-agent/llm"
)

// MockGenerateResult is a result for a mocked `generate` call.
// It can either be a full response or an error.
type MockGenerateResult struct {
	Response *llm.ModelResponse
	Error    error
}

// NewMockGenerateResultResponse constructs a generate result with a response.
func NewMockGenerateResultResponse(response llm.ModelResponse) MockGenerateResult {
	return MockGenerateResult{Response: &response}
}

// NewMockGenerateResultError constructs a generate result that yields an error.
func NewMockGenerateResultError(err error) MockGenerateResult {
	return MockGenerateResult{Error: err}
}

// NewMockGenerateResultText is a shortcut for a response made of a single text part.
func NewMockGenerateResultText(text string) MockGenerateResult {
	return NewMockGenerateResultResponse(llm.ModelResponse{
		Content: []llm.Part{llm.NewTextPart(text)},
	})
}

// NewMockGenerateResultToolCall is a shortcut for a response that calls one tool.
func NewMockGenerateResultToolCall(toolCallID, toolName string, args any) MockGenerateResult {
	return NewMockGenerateResultResponse(llm.ModelResponse{
		Content: []llm.Part{llm.NewToolCallPart(toolCallID, toolName, args)},
	})
}

// MockLanguageModel is a mock language model for testing purposes
// that tracks inputs and returns predefined outputs.
type MockLanguageModel struct {
	mockedGenerateResults []MockGenerateResult
	trackedGenerateInputs []llm.LanguageModelInput

	provider llm.ProviderName
	modelID  string
}

// NewMockLanguageModel constructs a mock language model instance.
func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{
		mockedGenerateResults: []MockGenerateResult{},
		trackedGenerateInputs: []llm.LanguageModelInput{},
		provider:              "mock",
		modelID:               "mock-model",
	}
}

// Provider returns the provider name of the mock language model.
func (m *MockLanguageModel) Provider() llm.ProviderName {
	return m.provider
}

// ModelID returns the model identifier of the mock language model.
func (m *MockLanguageModel) ModelID() string {
	return m.modelID
}

// Generate returns the next mocked generate result, tracking the provided input.
func (m *MockLanguageModel) Generate(_ context.Context, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	if len(m.mockedGenerateResults) == 0 {
		return nil, errors.New("no mocked generate results available")
	}

	result := m.mockedGenerateResults[0]
	m.mockedGenerateResults = m.mockedGenerateResults[1:]

	tracked := *input
	tracked.Messages = append([]llm.Message(nil), input.Messages...)
	m.trackedGenerateInputs = append(m.trackedGenerateInputs, tracked)

	if result.Error != nil {
		return nil, result.Error
	}

	return result.Response, nil
}

// EnqueueGenerateResult enqueues generate results to be returned sequentially.
func (m *MockLanguageModel) EnqueueGenerateResult(results ...MockGenerateResult) {
	m.mockedGenerateResults = append(m.mockedGenerateResults, results...)
}

// TrackedGenerateInputs returns the list of inputs tracked from Generate calls.
func (m *MockLanguageModel) TrackedGenerateInputs() []llm.LanguageModelInput {
	return m.trackedGenerateInputs
}

// Restore clears enqueued results and tracked inputs, returning the mock to its initial state.
func (m *MockLanguageModel) Restore() {
	m.mockedGenerateResults = []MockGenerateResult{}
	m.trackedGenerateInputs = []llm.LanguageModelInput{}
}

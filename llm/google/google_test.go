package google

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/expense-agent/llm"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	response *genai.GenerateContentResponse
	err      error

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents
	f.gotConfig = config
	return f.response, f.err
}

func TestGenerate_MapsToolCallsAndUsage(t *testing.T) {
	fake := &fakeGenerator{response: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				{Text: "Voy a registrarlo."},
				{FunctionCall: &genai.FunctionCall{ID: "fc_1", Name: "add_expense", Args: map[string]any{"amount": 50.0}}},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 3},
	}}
	model := &GoogleModel{modelID: "gemini-2.5-flash", models: fake}

	prompt := "sistema"
	temperature := 1.0
	response, err := model.Generate(context.Background(), &llm.LanguageModelInput{
		SystemPrompt: &prompt,
		Temperature:  &temperature,
		Messages:     []llm.Message{llm.NewUserMessage(llm.NewTextPart("gasté 50 en comida"))},
		Tools: []llm.Tool{{
			Name:        "add_expense",
			Description: "Registra un gasto",
			Parameters:  llm.JSONSchema{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if fake.gotModel != "gemini-2.5-flash" {
		t.Errorf("model = %q", fake.gotModel)
	}
	if got := fake.gotConfig.SystemInstruction.Parts[0].Text; got != prompt {
		t.Errorf("system instruction = %q", got)
	}
	if got := *fake.gotConfig.Temperature; got != 1.0 {
		t.Errorf("temperature = %v", got)
	}
	if got := fake.gotConfig.Tools[0].FunctionDeclarations[0].Name; got != "add_expense" {
		t.Errorf("tool name = %q", got)
	}

	if len(response.Content) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(response.Content))
	}
	if response.Content[0].TextPart == nil || response.Content[0].TextPart.Text != "Voy a registrarlo." {
		t.Errorf("unexpected text part: %+v", response.Content[0])
	}
	call := response.Content[1].ToolCallPart
	if call == nil || call.ToolCallID != "fc_1" || call.ToolName != "add_expense" {
		t.Fatalf("unexpected tool call: %+v", response.Content[1])
	}
	if diff := cmp.Diff(`{"amount":50}`, string(call.Args)); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&llm.ModelUsage{InputTokens: 12, OutputTokens: 3}, response.Usage); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_AssignsMissingToolCallID(t *testing.T) {
	fake := &fakeGenerator{response: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: "query_with_code", Args: map[string]any{"code": "result = 1"}}},
			}},
		}},
	}}
	model := &GoogleModel{modelID: "m", models: fake}

	response, err := model.Generate(context.Background(), &llm.LanguageModelInput{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if id := response.Content[0].ToolCallPart.ToolCallID; len(id) <= len("call_") {
		t.Errorf("expected generated tool call id, got %q", id)
	}
}

func TestGenerate_WrapsErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		model := &GoogleModel{models: &fakeGenerator{err: genai.APIError{Code: 429, Message: "quota"}}}
		_, err := model.Generate(context.Background(), &llm.LanguageModelInput{})
		var lmErr *llm.LanguageModelError
		if !errors.As(err, &lmErr) || lmErr.Kind != llm.StatusCode || lmErr.Status != 429 {
			t.Fatalf("expected status code error, got %v", err)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		model := &GoogleModel{models: &fakeGenerator{err: errors.New("connection reset")}}
		_, err := model.Generate(context.Background(), &llm.LanguageModelInput{})
		var lmErr *llm.LanguageModelError
		if !errors.As(err, &lmErr) || lmErr.Kind != llm.Transport {
			t.Fatalf("expected transport error, got %v", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		model := &GoogleModel{models: &fakeGenerator{response: &genai.GenerateContentResponse{}}}
		_, err := model.Generate(context.Background(), &llm.LanguageModelInput{})
		var lmErr *llm.LanguageModelError
		if !errors.As(err, &lmErr) || lmErr.Kind != llm.Invariant {
			t.Fatalf("expected invariant error, got %v", err)
		}
	})
}

func TestConvertToGoogleContents(t *testing.T) {
	messages := []llm.Message{
		llm.NewUserMessage(llm.NewTextPart("hola")),
		llm.NewAssistantMessage(llm.NewToolCallPart("c1", "query_with_code", map[string]any{"code": "result = 'x'"})),
		llm.NewToolMessage(llm.NewToolResultPart("c1", "query_with_code", []llm.Part{llm.NewTextPart("x")}, false)),
		llm.NewToolMessage(llm.NewToolResultPart("c2", "add_expense", []llm.Part{llm.NewTextPart("Error: fecha")}, true)),
	}

	contents, err := convertToGoogleContents(messages)
	if err != nil {
		t.Fatalf("convertToGoogleContents() error = %v", err)
	}

	roles := []string{}
	for _, c := range contents {
		roles = append(roles, c.Role)
	}
	if diff := cmp.Diff([]string{"user", "model", "user", "user"}, roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}

	call := contents[1].Parts[0].FunctionCall
	if call.ID != "c1" || call.Args["code"] != "result = 'x'" {
		t.Errorf("unexpected function call: %+v", call)
	}
	if got := contents[2].Parts[0].FunctionResponse.Response; got["output"] != "x" {
		t.Errorf("unexpected function response: %v", got)
	}
	if got := contents[3].Parts[0].FunctionResponse.Response; got["error"] != "Error: fecha" {
		t.Errorf("unexpected error response: %v", got)
	}

	raw, _ := json.Marshal(contents[0].Parts[0].Text)
	if string(raw) != `"hola"` {
		t.Errorf("unexpected user text %s", raw)
	}
}

package llmtest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/llm/llmtest"
)

func TestMockLanguageModel_Generate(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultText("hola"),
		llmtest.NewMockGenerateResultError(errors.New("boom")),
	)

	input := &llm.LanguageModelInput{Messages: []llm.Message{llm.NewUserMessage(llm.NewTextPart("hi"))}}

	response, err := model.Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := llm.Text(response.Content); got != "hola" {
		t.Errorf("text = %q", got)
	}

	if _, err := model.Generate(context.Background(), input); err == nil || err.Error() != "boom" {
		t.Errorf("expected boom, got %v", err)
	}

	if _, err := model.Generate(context.Background(), input); err == nil {
		t.Error("expected error when results are exhausted")
	}

	if got := len(model.TrackedGenerateInputs()); got != 2 {
		t.Errorf("tracked inputs = %d, want 2", got)
	}

	model.Restore()
	if got := len(model.TrackedGenerateInputs()); got != 0 {
		t.Errorf("tracked inputs after restore = %d", got)
	}
}

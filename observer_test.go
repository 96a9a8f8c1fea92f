package expenseagent_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/llm/llmtest"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/rs/zerolog"
)

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) OnTurnStart(_ context.Context, input string) {
	o.events = append(o.events, "start:"+input)
}

func (o *recordingObserver) OnModelResponse(_ context.Context, step uint, _ *llm.ModelResponse) {
	o.events = append(o.events, "model")
}

func (o *recordingObserver) OnToolResult(_ context.Context, call *llm.ToolCallPart, result tools.Result, _ time.Duration) {
	o.events = append(o.events, "tool:"+call.ToolName)
}

func (o *recordingObserver) OnTurnEnd(_ context.Context, _ *expenseagent.Response, err error) {
	if err != nil {
		o.events = append(o.events, "end:error")
		return
	}
	o.events = append(o.events, "end")
}

func TestObserver_Hooks(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, expenseagent.WithObserver(obs))
	f.model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultToolCall("call_1", tools.QueryName, map[string]any{"code": `result = "x"`}),
		llmtest.NewMockGenerateResultText("No hay datos."),
	)

	if _, _, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "cuánto gasté"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"start:cuánto gasté", "model", "tool:query_with_code", "model", "end"}
	if diff := cmp.Diff(want, obs.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, zerolog.DebugLevel)
	f := newFixture(t, expenseagent.WithObserver(expenseagent.NewLogObserver(log)))
	f.model.EnqueueGenerateResult(
		llmtest.NewMockGenerateResultToolCall("call_1", tools.AddExpenseName, map[string]any{
			"date": "2026-02-15", "category": "juegos", "description": "x", "amount": 10,
		}),
		llmtest.NewMockGenerateResultError(llm.NewTransportError(context.DeadlineExceeded)),
	)

	if _, _, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "gasté 10 en juegos"); err == nil {
		t.Fatal("Run() succeeded, want a model error")
	}

	out := buf.String()
	for _, want := range []string{
		`"message":"turn started"`,
		`"message":"model responded"`,
		`"level":"warn"`,
		`"tool":"add_expense"`,
		`"message":"turn failed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}
}

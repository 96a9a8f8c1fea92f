package expenseagent_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jsonschema-go/jsonschema"
	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/llm/llmtest"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/shopspring/decimal"
)

func fixedNow() time.Time {
	return time.Date(2026, 2, 20, 15, 4, 5, 0, time.UTC)
}

type fixture struct {
	model      *llmtest.MockLanguageModel
	agent      *expenseagent.Agent
	ledgerPath string
	chartDir   string
}

func newFixture(t *testing.T, options ...expenseagent.AgentParamsOption) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		model:      llmtest.NewMockLanguageModel(),
		ledgerPath: filepath.Join(dir, "gastos.csv"),
		chartDir:   filepath.Join(dir, "graficos"),
	}
	toolset := tools.NewToolset(tools.Options{
		Store:    ledger.NewStore(f.ledgerPath, nil),
		ChartDir: f.chartDir,
		Now:      fixedNow,
	})
	opts := append([]expenseagent.AgentParamsOption{
		expenseagent.WithTools(toolset.Tools()...),
		expenseagent.WithInstructions(expenseagent.InstructionParam{
			Func: func(today time.Time) string { return tools.SystemPrompt(today, nil) },
		}),
		expenseagent.WithClock(fixedNow),
	}, options...)

	agent, err := expenseagent.NewAgent("gastos", f.model, opts...)
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	f.agent = agent
	return f
}

func toolResults(conv expenseagent.Conversation) []*llm.ToolResultPart {
	var results []*llm.ToolResultPart
	for _, msg := range conv.Messages {
		if msg.ToolMessage == nil {
			continue
		}
		for _, part := range msg.ToolMessage.Content {
			if part.ToolResultPart != nil {
				results = append(results, part.ToolResultPart)
			}
		}
	}
	return results
}

func TestAgent_Run(t *testing.T) {
	t.Run("returns a plain answer", func(t *testing.T) {
		f := newFixture(t)
		f.model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText("¡Hola!"))

		conv, res, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "hola")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Text() != "¡Hola!" || res.Steps != 1 {
			t.Errorf("response = %q after %d steps", res.Text(), res.Steps)
		}
		if len(conv.Messages) != 2 {
			t.Fatalf("conversation has %d messages, want 2", len(conv.Messages))
		}

		inputs := f.model.TrackedGenerateInputs()
		if len(inputs) != 1 {
			t.Fatalf("model called %d times", len(inputs))
		}
		if inputs[0].SystemPrompt == nil || !strings.Contains(*inputs[0].SystemPrompt, "2026-02-20") {
			t.Error("system prompt is missing today's date")
		}
		var names []string
		for _, tool := range inputs[0].Tools {
			names = append(names, tool.Name)
		}
		if diff := cmp.Diff([]string{tools.AddExpenseName, tools.QueryName, tools.ChartName}, names); diff != "" {
			t.Errorf("tools mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("records an expense", func(t *testing.T) {
		f := newFixture(t)
		f.model.EnqueueGenerateResult(
			llmtest.NewMockGenerateResultToolCall("call_1", tools.AddExpenseName, map[string]any{
				"date": "2026-02-15", "category": "comida", "description": "almuerzo", "amount": 50,
			}),
			llmtest.NewMockGenerateResultText("Listo, registré el gasto."),
		)

		conv, res, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "gasté 50 en almuerzo el 15 de febrero")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Steps != 2 {
			t.Errorf("Steps = %d, want 2", res.Steps)
		}
		results := toolResults(conv)
		if len(results) != 1 || results[0].IsError {
			t.Fatalf("tool results = %+v", results)
		}
		if got := llm.Text(results[0].Content); !strings.Contains(got, "$50.00") {
			t.Errorf("observation = %q, want the amount", got)
		}
		if _, err := os.Stat(f.ledgerPath); err != nil {
			t.Errorf("ledger not written: %v", err)
		}

		// The second model call sees the observation.
		second := f.model.TrackedGenerateInputs()[1]
		if got := second.Messages[len(second.Messages)-1].Role(); got != llm.RoleTool {
			t.Errorf("last message role = %s, want tool", got)
		}
	})

	t.Run("answers with no data without running code", func(t *testing.T) {
		f := newFixture(t)
		f.model.EnqueueGenerateResult(
			llmtest.NewMockGenerateResultToolCall("call_1", tools.QueryName, map[string]any{"code": `result = df["amount"].sum()`}),
			llmtest.NewMockGenerateResultText("Todavía no hay gastos."),
		)

		conv, _, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "¿cuánto gasté?")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := llm.Text(toolResults(conv)[0].Content); got != tools.NoDataMessage {
			t.Errorf("observation = %q, want %q", got, tools.NoDataMessage)
		}
	})

	t.Run("accumulates usage", func(t *testing.T) {
		f := newFixture(t)
		call := llmtest.NewMockGenerateResultToolCall("call_1", tools.QueryName, map[string]any{"code": "result = 1"})
		call.Response.Usage = &llm.ModelUsage{InputTokens: 100, OutputTokens: 10}
		answer := llmtest.NewMockGenerateResultText("1")
		answer.Response.Usage = &llm.ModelUsage{InputTokens: 150, OutputTokens: 5}
		f.model.EnqueueGenerateResult(call, answer)

		_, res, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "uno")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if diff := cmp.Diff(llm.ModelUsage{InputTokens: 250, OutputTokens: 15}, res.Usage); diff != "" {
			t.Errorf("usage mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAgent_Run_ErrorObservations(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		args     any
		want     string
	}{
		{"unknown tool", "delete_everything", map[string]any{}, `Error: la herramienta "delete_everything" no existe.`},
		{"schema violation", tools.AddExpenseName, map[string]any{
			"date": "2026-02-15", "category": "comida", "description": "almuerzo", "amount": "cincuenta",
		}, "Error: argumentos inválidos para add_expense"},
		{"missing argument", tools.QueryName, map[string]any{}, "Error: argumentos inválidos para query_with_code"},
		{"category outside the set", tools.AddExpenseName, map[string]any{
			"date": "2026-02-15", "category": "viajes", "description": "hotel", "amount": 10,
		}, "Error: La categoría 'viajes' no es válida."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.model.EnqueueGenerateResult(
				llmtest.NewMockGenerateResultToolCall("call_1", tt.toolName, tt.args),
				llmtest.NewMockGenerateResultText("Perdón, algo salió mal."),
			)

			conv, _, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "hacé algo")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			results := toolResults(conv)
			if len(results) != 1 || !results[0].IsError {
				t.Fatalf("tool results = %+v, want one error observation", results)
			}
			if got := llm.Text(results[0].Content); !strings.HasPrefix(got, tt.want) {
				t.Errorf("observation = %q, want prefix %q", got, tt.want)
			}
			if _, err := os.Stat(f.ledgerPath); !os.IsNotExist(err) {
				t.Error("ledger written by a rejected call")
			}
		})
	}
}

func TestAgent_Run_NormalizesCategory(t *testing.T) {
	for _, category := range []string{"Comida", " COMIDA "} {
		t.Run(category, func(t *testing.T) {
			f := newFixture(t)
			f.model.EnqueueGenerateResult(
				llmtest.NewMockGenerateResultToolCall("call_1", tools.AddExpenseName, map[string]any{
					"date": "2026-02-15", "category": category, "description": "almuerzo", "amount": 50,
				}),
				llmtest.NewMockGenerateResultText("Listo."),
			)

			conv, _, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "gasté 50 en comida")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if results := toolResults(conv); len(results) != 1 || results[0].IsError {
				t.Fatalf("tool results = %+v, want one success", results)
			}

			records, ok, err := ledger.NewStore(f.ledgerPath, nil).Load()
			if err != nil || !ok {
				t.Fatalf("Load() = %v, %v", ok, err)
			}
			want := []ledger.Record{{
				Date:        time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
				Category:    "comida",
				Description: "almuerzo",
				Amount:      decimalOf(t, "50"),
			}}
			if diff := cmp.Diff(want, records); diff != "" {
				t.Errorf("ledger mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAgent_Run_Artifact(t *testing.T) {
	const chartCode = `
fig, ax = plt.subplots(figsize=(6, 4))
ax.bar(df.groupby("category").sum("amount"))
fig.savefig(OUTPUT_PATH, dpi=60)
`
	seedLedger := func(t *testing.T, f *fixture) {
		t.Helper()
		store := ledger.NewStore(f.ledgerPath, nil)
		record, err := ledger.NewRecord("2026-02-15", "comida", "almuerzo", decimalOf(t, "10"), ledger.DefaultCategories)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Append(record); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("chart then query keeps the chart", func(t *testing.T) {
		f := newFixture(t)
		seedLedger(t, f)
		f.model.EnqueueGenerateResult(
			llmtest.NewMockGenerateResultToolCall("call_1", tools.ChartName, map[string]any{"code": chartCode}),
			llmtest.NewMockGenerateResultToolCall("call_2", tools.QueryName, map[string]any{"code": "result = len(df)"}),
			llmtest.NewMockGenerateResultText("Acá está tu gráfico."),
		)

		conv, res, err := f.agent.Run(context.Background(), expenseagent.Conversation{}, "graficá mis gastos")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		want := filepath.Join(f.chartDir, "chart_20260220_150405.png")
		if res.Artifact != want || conv.LastArtifact != want {
			t.Errorf("artifact = %q / %q, want %q", res.Artifact, conv.LastArtifact, want)
		}
		if got := conv.TakeArtifact(); got != want || conv.LastArtifact != "" {
			t.Errorf("TakeArtifact() = %q, slot %q", got, conv.LastArtifact)
		}
	})

	t.Run("failed chart clears the slot", func(t *testing.T) {
		f := newFixture(t)
		seedLedger(t, f)
		f.model.EnqueueGenerateResult(
			llmtest.NewMockGenerateResultToolCall("call_1", tools.ChartName, map[string]any{"code": "plt.bar(1)"}),
			llmtest.NewMockGenerateResultText("No pude generar el gráfico."),
		)

		prior := expenseagent.Conversation{LastArtifact: "graficos/old.png"}
		conv, res, err := f.agent.Run(context.Background(), prior, "graficá")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Artifact != "" || conv.LastArtifact != "" {
			t.Errorf("artifact = %q, want cleared", conv.LastArtifact)
		}
	})
}

func TestAgent_Run_RollsBack(t *testing.T) {
	prior := expenseagent.Conversation{
		Messages: []llm.Message{
			llm.NewUserMessage(llm.NewTextPart("hola")),
			llm.NewAssistantMessage(llm.NewTextPart("¡Hola!")),
		},
	}

	t.Run("language model error", func(t *testing.T) {
		f := newFixture(t)
		f.model.EnqueueGenerateResult(llmtest.NewMockGenerateResultError(llm.NewTransportError(errors.New("connection reset"))))

		conv, res, err := f.agent.Run(context.Background(), prior, "¿cuánto gasté?")
		assertAgentError(t, err, expenseagent.LanguageModelErrorKind)
		if res != nil {
			t.Error("response returned with an error")
		}
		if len(conv.Messages) != len(prior.Messages) {
			t.Errorf("conversation has %d messages, want %d", len(conv.Messages), len(prior.Messages))
		}
	})

	t.Run("max turns exceeded", func(t *testing.T) {
		f := newFixture(t, expenseagent.WithMaxTurns(2))
		for i := range 3 {
			f.model.EnqueueGenerateResult(llmtest.NewMockGenerateResultToolCall(
				"call_"+string(rune('a'+i)), tools.QueryName, map[string]any{"code": "result = 1"}))
		}

		conv, _, err := f.agent.Run(context.Background(), prior, "loop")
		assertAgentError(t, err, expenseagent.MaxTurnsExceededKind)
		if len(conv.Messages) != len(prior.Messages) {
			t.Errorf("conversation has %d messages, want %d", len(conv.Messages), len(prior.Messages))
		}
		if got := len(f.model.TrackedGenerateInputs()); got != 2 {
			t.Errorf("model called %d times, want 2", got)
		}
	})

	t.Run("tool execution error", func(t *testing.T) {
		model := llmtest.NewMockLanguageModel()
		agent, err := expenseagent.NewAgent("gastos", model, expenseagent.WithTools(failingTool{}))
		if err != nil {
			t.Fatal(err)
		}
		model.EnqueueGenerateResult(llmtest.NewMockGenerateResultToolCall("call_1", "broken", nil))

		conv, _, err := agent.Run(context.Background(), prior, "rompé algo")
		assertAgentError(t, err, expenseagent.ToolExecutionErrorKind)
		if len(conv.Messages) != len(prior.Messages) {
			t.Errorf("conversation has %d messages, want %d", len(conv.Messages), len(prior.Messages))
		}
	})
}

func TestNewAgent_DuplicateTool(t *testing.T) {
	_, err := expenseagent.NewAgent("gastos", llmtest.NewMockLanguageModel(),
		expenseagent.WithTools(failingTool{}, failingTool{}))
	if err == nil {
		t.Fatal("NewAgent() accepted duplicate tools")
	}
}

func assertAgentError(t *testing.T, err error, kind expenseagent.ErrorKind) {
	t.Helper()
	var agentErr *expenseagent.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("error = %v, want *AgentError", err)
	}
	if agentErr.Kind != kind {
		t.Errorf("Kind = %s, want %s", agentErr.Kind, kind)
	}
}

type failingTool struct{}

func (failingTool) Name() string        { return "broken" }
func (failingTool) Description() string { return "always fails" }
func (failingTool) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}
func (failingTool) Execute(context.Context, json.RawMessage) (tools.Result, error) {
	return tools.Result{}, errors.New("disk on fire")
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

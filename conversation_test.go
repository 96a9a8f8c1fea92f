package expenseagent

import (
	"testing"
	"time"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
)

func toolMessage(results ...llm.Part) llm.Message {
	return llm.NewToolMessage(results...)
}

func chartResult(text string, isError bool) llm.Part {
	return llm.NewToolResultPart("call", tools.ChartName, []llm.Part{llm.NewTextPart(text)}, isError)
}

func queryResult(text string) llm.Part {
	return llm.NewToolResultPart("call", tools.QueryName, []llm.Part{llm.NewTextPart(text)}, false)
}

func TestExtractArtifact(t *testing.T) {
	tests := []struct {
		name     string
		messages []llm.Message
		want     string
	}{
		{
			name:     "no tool messages",
			messages: []llm.Message{llm.NewUserMessage(llm.NewTextPart("hola"))},
			want:     "",
		},
		{
			name:     "successful chart",
			messages: []llm.Message{toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/a.png", false))},
			want:     "graficos/a.png",
		},
		{
			name: "later query does not hide the chart",
			messages: []llm.Message{
				toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/a.png", false)),
				toolMessage(queryResult("3")),
			},
			want: "graficos/a.png",
		},
		{
			name: "newest chart wins",
			messages: []llm.Message{
				toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/a.png", false)),
				toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/b.png", false)),
			},
			want: "graficos/b.png",
		},
		{
			name: "newest chart failed",
			messages: []llm.Message{
				toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/a.png", false)),
				toolMessage(chartResult(tools.ExecErrorPrefix+"boom", true)),
			},
			want: "",
		},
		{
			name:     "chart without file",
			messages: []llm.Message{toolMessage(chartResult(tools.ChartMissingMessage, false))},
			want:     "",
		},
		{
			name: "parallel calls in one message",
			messages: []llm.Message{
				toolMessage(chartResult(tools.ChartSuccessPrefix+"graficos/a.png", false), queryResult("ok")),
			},
			want: "graficos/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractArtifact(tt.messages); got != tt.want {
				t.Errorf("extractArtifact() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetPrompt(t *testing.T) {
	static := "Sé breve."
	prompt := getPrompt([]InstructionParam{
		{String: &static},
		{Func: func(today time.Time) string { return "Hoy es " + today.Format("2006-01-02") }},
	}, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))

	if prompt != "Sé breve.\nHoy es 2026-02-20" {
		t.Errorf("getPrompt() = %q", prompt)
	}
}

package tracing

import (
	"context"
	"testing"

	"github.com/hoangvvo/expense-agent/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Tracing{}, "test")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetup_Enabled(t *testing.T) {
	cfg := config.Tracing{
		Enabled:     true,
		EndpointURL: "http://127.0.0.1:1/v1/traces",
		Headers:     map[string]string{"Authorization": "Basic eA=="},
	}
	shutdown, err := Setup(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so a cancelled flush only reports the context.
	_ = shutdown(ctx)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		cfg  config.Tracing
		want string
	}{
		{config.Tracing{}, "Trazas: desactivadas"},
		{config.Tracing{Enabled: true}, "Trazas: OTLP"},
		{config.Tracing{Enabled: true, Langfuse: true}, "Trazas: Langfuse"},
	}
	for _, tt := range tests {
		if got := Describe(tt.cfg); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

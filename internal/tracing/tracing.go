// Package tracing installs the global OpenTelemetry tracer provider that the
// agent's spans are recorded on.
package tracing

import (
	"context"
	"fmt"

	"github.com/hoangvvo/expense-agent/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const ServiceName = "expense-agent"

// Setup exports spans over OTLP/HTTP when cfg enables tracing. The returned
// shutdown flushes pending spans and is safe to call when tracing is off.
func Setup(ctx context.Context, cfg config.Tracing, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var opts []otlptracehttp.Option
	if cfg.EndpointURL != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.EndpointURL))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			"",
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Describe returns a short status line for the chat banner.
func Describe(cfg config.Tracing) string {
	switch {
	case cfg.Langfuse:
		return "Trazas: Langfuse"
	case cfg.Enabled:
		return "Trazas: OTLP"
	default:
		return "Trazas: desactivadas"
	}
}

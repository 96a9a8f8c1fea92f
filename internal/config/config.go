// Package config reads the agent's settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"

	DefaultGoogleModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultLangfuseURL = "https://cloud.langfuse.com"

	langfuseTracesPath = "/api/public/otel/v1/traces"
)

type Config struct {
	Provider      string
	Model         string
	APIKey        string
	OpenAIBaseURL string
	Temperature   float64

	LedgerPath string
	ChartDir   string
	Categories []string

	MaxTurns     uint
	ExecTimeout  time.Duration
	ExecMaxSteps uint64

	LogLevel zerolog.Level
	Tracing  Tracing
}

// Tracing describes where spans are exported. With neither an OTLP endpoint
// nor Langfuse keys, tracing is off.
type Tracing struct {
	Enabled bool
	// EndpointURL overrides the exporter endpoint. Empty means the exporter
	// reads the OTEL_EXPORTER_OTLP_* variables itself.
	EndpointURL string
	Headers     map[string]string
	Langfuse    bool
}

// Load reads the given .env files, falling back to ./.env, then builds the
// configuration from the process environment. Variables already set in the
// environment win over the files. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds and validates the configuration from lookup.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var errs []error
	cfg := &Config{
		Provider:      strings.ToLower(get("EXPENSE_PROVIDER", ProviderGoogle)),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		LedgerPath:    get("EXPENSE_LEDGER_PATH", "gastos.csv"),
		ChartDir:      get("EXPENSE_CHART_DIR", "graficos"),
	}

	switch cfg.Provider {
	case ProviderGoogle:
		cfg.Model = get("EXPENSE_MODEL", DefaultGoogleModel)
		cfg.APIKey = get("GOOGLE_API_KEY", get("GEMINI_API_KEY", ""))
	case ProviderOpenAI:
		cfg.Model = get("EXPENSE_MODEL", DefaultOpenAIModel)
		cfg.APIKey = get("OPENAI_API_KEY", "")
	default:
		errs = append(errs, fmt.Errorf("EXPENSE_PROVIDER: unsupported provider %q", cfg.Provider))
	}

	var err error
	if cfg.Temperature, err = strconv.ParseFloat(get("EXPENSE_TEMPERATURE", "1.0"), 64); err != nil || cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("EXPENSE_TEMPERATURE: want a number between 0 and 2"))
	}

	maxTurns, err := strconv.ParseUint(get("EXPENSE_MAX_TURNS", "10"), 10, 32)
	if err != nil || maxTurns == 0 {
		errs = append(errs, fmt.Errorf("EXPENSE_MAX_TURNS: want a positive integer"))
	}
	cfg.MaxTurns = uint(maxTurns)

	if cfg.ExecTimeout, err = time.ParseDuration(get("EXPENSE_EXEC_TIMEOUT", "10s")); err != nil || cfg.ExecTimeout <= 0 {
		errs = append(errs, fmt.Errorf("EXPENSE_EXEC_TIMEOUT: want a positive duration such as 10s"))
	}
	if cfg.ExecMaxSteps, err = strconv.ParseUint(get("EXPENSE_EXEC_MAX_STEPS", "5000000"), 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("EXPENSE_EXEC_MAX_STEPS: want a non-negative integer"))
	}

	cfg.Categories = ledger.DefaultCategories
	if raw, ok := lookup("EXPENSE_CATEGORIES"); ok {
		cfg.Categories = parseCategories(raw)
		if len(cfg.Categories) == 0 {
			errs = append(errs, errors.New("EXPENSE_CATEGORIES: at least one category is required"))
		}
	}

	if cfg.LogLevel, err = logger.ParseLevel(get("EXPENSE_LOG_LEVEL", "")); err != nil {
		errs = append(errs, fmt.Errorf("EXPENSE_LOG_LEVEL: %w", err))
	}

	cfg.Tracing = tracingFromEnv(get)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// RequireCredentials reports a missing API key for the configured provider.
// Commands that never reach the model skip it.
func (c *Config) RequireCredentials() error {
	if c.APIKey != "" {
		return nil
	}
	switch c.Provider {
	case ProviderOpenAI:
		return errors.New("OPENAI_API_KEY is required for the openai provider")
	default:
		return errors.New("GOOGLE_API_KEY is required for the google provider")
	}
}

func parseCategories(raw string) []string {
	var categories []string
	seen := make(map[string]bool)
	for _, c := range strings.Split(raw, ",") {
		c = ledger.NormalizeCategory(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	return categories
}

func tracingFromEnv(get func(key, fallback string) string) Tracing {
	publicKey := get("LANGFUSE_PUBLIC_KEY", "")
	secretKey := get("LANGFUSE_SECRET_KEY", "")
	if publicKey != "" && secretKey != "" {
		base := strings.TrimRight(get("LANGFUSE_BASE_URL", get("LANGFUSE_HOST", DefaultLangfuseURL)), "/")
		auth := base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + secretKey))
		return Tracing{
			Enabled:     true,
			EndpointURL: base + langfuseTracesPath,
			Headers:     map[string]string{"Authorization": "Basic " + auth},
			Langfuse:    true,
		}
	}
	if get("OTEL_EXPORTER_OTLP_ENDPOINT", get("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")) != "" {
		return Tracing{Enabled: true}
	}
	return Tracing{}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/hoangvvo/expense-agent/internal/config"
	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/internal/tracing"
	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/llm/google"
	"github.com/hoangvvo/expense-agent/llm/openai"
	"github.com/hoangvvo/expense-agent/sandbox"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/rs/zerolog"
)

// app holds what every subcommand shares.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *ledger.Store
	toolset *tools.Toolset
}

// newApp loads the configuration and builds the ledger tools. jsonLogs
// switches stderr logging from the console format to JSON lines.
func newApp(jsonLogs bool) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if debug {
		cfg.LogLevel = zerolog.DebugLevel
	}

	log := logger.New(cfg.LogLevel)
	if jsonLogs {
		log = logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	}

	if err := os.MkdirAll(cfg.ChartDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	store := ledger.NewStore(cfg.LedgerPath, cfg.Categories)
	executor := sandbox.NewExecutor(sandbox.Options{
		Timeout:  cfg.ExecTimeout,
		MaxSteps: cfg.ExecMaxSteps,
	})
	toolset := tools.NewToolset(tools.Options{
		Store:    store,
		Executor: executor,
		ChartDir: cfg.ChartDir,
	})

	log.Debug().
		Str("ledger", cfg.LedgerPath).
		Str("charts", cfg.ChartDir).
		Strs("categories", cfg.Categories).
		Msg("configuration loaded")

	return &app{cfg: cfg, log: log, store: store, toolset: toolset}, nil
}

func (a *app) model(ctx context.Context) (llm.LanguageModel, error) {
	if err := a.cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	switch a.cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewOpenAIChatModel(a.cfg.Model, openai.OpenAIChatModelOptions{
			APIKey:  a.cfg.APIKey,
			BaseURL: a.cfg.OpenAIBaseURL,
		})
	default:
		return google.NewGoogleModel(ctx, a.cfg.Model, google.GoogleModelOptions{
			APIKey: a.cfg.APIKey,
		})
	}
}

func (a *app) agent(ctx context.Context) (*expenseagent.Agent, error) {
	model, err := a.model(ctx)
	if err != nil {
		return nil, err
	}

	categories := a.cfg.Categories
	return expenseagent.NewAgent("expense-agent", model,
		expenseagent.WithInstructions(expenseagent.InstructionParam{
			Func: func(today time.Time) string {
				return tools.SystemPrompt(today, categories)
			},
		}),
		expenseagent.WithTools(a.toolset.Tools()...),
		expenseagent.WithTemperature(a.cfg.Temperature),
		expenseagent.WithMaxTurns(a.cfg.MaxTurns),
		expenseagent.WithObserver(expenseagent.NewLogObserver(a.log)),
	)
}

func (a *app) setupTracing(ctx context.Context) func() {
	shutdown, err := tracing.Setup(ctx, a.cfg.Tracing, version)
	if err != nil {
		a.log.Warn().Err(err).Msg("tracing disabled")
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			a.log.Warn().Err(err).Msg("failed to flush traces")
		}
	}
}

package main

import (
	"os"

	"github.com/hoangvvo/expense-agent/internal/cli"
	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/internal/tracing"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Conversa con el asistente (por defecto)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(false)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, a.log)

	flush := a.setupTracing(ctx)
	defer flush()

	agent, err := a.agent(ctx)
	if err != nil {
		return err
	}

	fd := os.Stdout.Fd()
	terminal := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	width := 0
	if terminal {
		if w, _, err := term.GetSize(int(fd)); err == nil {
			width = w
		}
	}

	repl := cli.New(agent, cli.Options{
		In:            os.Stdin,
		Out:           os.Stdout,
		Terminal:      terminal,
		Width:         width,
		Subtitle:      a.cfg.Provider + " · " + a.cfg.Model,
		TracingStatus: tracing.Describe(a.cfg.Tracing),
		Debug:         debug,
		Logger:        a.log,
	})
	if err := repl.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

package main

import (
	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expone las herramientas de gastos como servidor MCP por stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Stdout carries the protocol; logs go to stderr as JSON.
		a, err := newApp(true)
		if err != nil {
			return err
		}
		ctx := logger.WithContext(cmd.Context(), a.log)

		flush := a.setupTracing(ctx)
		defer flush()

		registry, err := expenseagent.NewToolRegistry(a.toolset.Tools())
		if err != nil {
			return err
		}
		a.log.Info().Msg("serving MCP over stdio")
		if err := mcp.Serve(ctx, mcp.NewServer(registry, version)); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

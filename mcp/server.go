// Package mcp serves the expense tools over the Model Context Protocol so
// other agents can record and analyse expenses.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "expense-agent"

// NewServer registers every tool of the registry on a new MCP server.
func NewServer(registry *expenseagent.ToolRegistry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	for _, def := range registry.Definitions() {
		tool, _ := registry.Lookup(def.Name)
		server.AddTool(&mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Parameters(),
		}, handler(registry, tool.Name()))
	}
	return server
}

// Serve runs the server over stdin/stdout until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func handler(registry *expenseagent.ToolRegistry, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := &llm.ToolCallPart{
			ToolCallID: "mcp_" + uuid.NewString(),
			ToolName:   name,
			Args:       req.Params.Arguments,
		}
		result, err := registry.Dispatch(ctx, call)
		if err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Str("tool", name).Msg("tool failed")
			return nil, err
		}
		return toCallToolResult(ctx, name, result), nil
	}
}

// toCallToolResult maps a tool result to MCP content. Successful charts also
// carry the PNG itself.
func toCallToolResult(ctx context.Context, name string, result tools.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: result.IsError}
	for _, part := range result.Content {
		if part.TextPart != nil {
			out.Content = append(out.Content, &mcp.TextContent{Text: part.TextPart.Text})
		}
	}

	text := result.Text()
	if name != tools.ChartName || result.IsError || !strings.HasPrefix(text, tools.ChartSuccessPrefix) {
		return out
	}
	path := strings.TrimPrefix(text, tools.ChartSuccessPrefix)
	data, err := os.ReadFile(path)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("path", path).Msg("chart not attached")
		return out
	}
	out.Content = append(out.Content, &mcp.ImageContent{MIMEType: "image/png", Data: data})
	return out
}

package expenseagent

import (
	"strings"

	"github.com/hoangvvo/expense-agent/llm"
	"github.com/hoangvvo/expense-agent/tools"
)

// Conversation is the state carried between user turns. It is passed to and
// returned from Run; nothing else holds on to it.
type Conversation struct {
	Messages []llm.Message
	// LastArtifact is the chart produced during the most recent turn, if any.
	LastArtifact string
}

// TakeArtifact returns the pending chart path and clears it.
func (c *Conversation) TakeArtifact() string {
	path := c.LastArtifact
	c.LastArtifact = ""
	return path
}

// extractArtifact scans tool observations newest first and stops at the first
// chart result. It returns the chart path, or "" when that result is not a
// success or no chart was attempted.
func extractArtifact(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i].ToolMessage
		if msg == nil {
			continue
		}
		for j := len(msg.Content) - 1; j >= 0; j-- {
			result := msg.Content[j].ToolResultPart
			if result == nil || result.ToolName != tools.ChartName {
				continue
			}
			text := llm.Text(result.Content)
			if result.IsError || !strings.HasPrefix(text, tools.ChartSuccessPrefix) {
				return ""
			}
			return strings.TrimSpace(strings.TrimPrefix(text, tools.ChartSuccessPrefix))
		}
	}
	return ""
}

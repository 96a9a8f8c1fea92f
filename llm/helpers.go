package llm

import (
	"encoding/json"
	"strings"
)

// NewTextPart creates a new text part
func NewTextPart(text string) Part {
	return Part{TextPart: &TextPart{Text: text}}
}

// NewToolCallPart creates a new tool call part. args is marshalled to JSON;
// a json.RawMessage is used as is.
func NewToolCallPart(toolCallID, toolName string, args any) Part {
	var raw json.RawMessage
	switch v := args.(type) {
	case json.RawMessage:
		raw = v
	case nil:
		raw = json.RawMessage("{}")
	default:
		// TODO: surface marshal errors once a caller needs non-JSON args.
		raw, _ = json.Marshal(v)
	}
	return Part{ToolCallPart: &ToolCallPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Args:       raw,
	}}
}

// NewToolResultPart creates a new tool result part
func NewToolResultPart(toolCallID, toolName string, content []Part, isError bool) Part {
	return Part{ToolResultPart: &ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Content:    content,
		IsError:    isError,
	}}
}

// NewUserMessage creates a new user message
func NewUserMessage(parts ...Part) Message {
	return Message{UserMessage: &UserMessage{Content: parts}}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(parts ...Part) Message {
	return Message{AssistantMessage: &AssistantMessage{Content: parts}}
}

// NewToolMessage creates a new tool message
func NewToolMessage(parts ...Part) Message {
	return Message{ToolMessage: &ToolMessage{Content: parts}}
}

// ToolCalls returns the tool call parts found in content, in order.
func ToolCalls(content []Part) []*ToolCallPart {
	var calls []*ToolCallPart
	for _, part := range content {
		if part.ToolCallPart != nil {
			calls = append(calls, part.ToolCallPart)
		}
	}
	return calls
}

// Text concatenates the text parts of content with newlines.
func Text(content []Part) string {
	texts := make([]string, 0, len(content))
	for _, part := range content {
		if part.TextPart != nil && part.TextPart.Text != "" {
			texts = append(texts, part.TextPart.Text)
		}
	}
	return strings.Join(texts, "\n")
}
